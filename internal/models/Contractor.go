package models

import "time"

const ContractorActive = "Active"

// Contractor is a company that reports can be assigned to for repair.
type Contractor struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
