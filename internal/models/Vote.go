package models

import "time"

type VoteType string

const (
	VoteReal VoteType = "real"
	VoteFake VoteType = "fake"
)

func (v VoteType) Valid() bool {
	return v == VoteReal || v == VoteFake
}

// Vote is one entry of the per-user, per-report vote ledger.
type Vote struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ReportID  string    `json:"reportId" gorm:"index:idx_vote_report_user"`
	UserID    string    `json:"userId" gorm:"index:idx_vote_report_user"`
	Type      VoteType  `json:"type" gorm:"type:varchar(8)"`
	CreatedAt time.Time `json:"createdAt"`
}
