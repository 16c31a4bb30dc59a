package models

import "time"

type ReportStatus string

const (
	StatusPendingValidation ReportStatus = "Pending Validation"
	StatusInProgress        ReportStatus = "In Progress"
	StatusFixedUnverified   ReportStatus = "Fixed - Verification Needed"
	StatusResolved          ReportStatus = "Resolved"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPendingValidation, StatusInProgress, StatusFixedUnverified, StatusResolved:
		return true
	}
	return false
}

// Report is a geotagged civic issue submitted by a citizen.
//
// ValidationCount counts every community action (votes and fix
// verifications), so it is not always RealVotes+FakeVotes.
type Report struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Location    string       `json:"location"` // free text or "lat,lon"
	Image       string       `json:"image"`
	Status      ReportStatus `json:"status" gorm:"type:varchar(32);index"`
	Author      string       `json:"author"`
	AuthorID    string       `json:"authorId,omitempty" gorm:"index"`

	Area string `json:"area,omitempty" gorm:"index"`
	Ward string `json:"ward,omitempty" gorm:"index"`
	Zone string `json:"zone,omitempty" gorm:"index"`

	ValidationCount int `json:"validationCount"`
	RealVotes       int `json:"realVotes"`
	FakeVotes       int `json:"fakeVotes"`

	AssignedContractor string     `json:"assignedContractor,omitempty"`
	AssignedAt         *time.Time `json:"assignedAt,omitempty"`
	ResolvedAt         *time.Time `json:"resolvedAt,omitempty"`
	SLADeadline        *time.Time `json:"slaDeadline,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
