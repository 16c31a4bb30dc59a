package models

// Budget holds administrative spending figures. They are entered by
// admins and never derived from reports.
type Budget struct {
	ID         uint    `json:"-" gorm:"primaryKey"`
	Allocated  float64 `json:"allocated"`
	Utilized   float64 `json:"utilized"`
	Percentage float64 `json:"percentage"`
}

// DefaultBudget is reported when no budget has been recorded.
func DefaultBudget() Budget {
	return Budget{Allocated: 35000000, Utilized: 24000000, Percentage: 68.6}
}
