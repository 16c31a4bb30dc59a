package services

import (
	"time"

	"civic_trust/internal/models"
)

// ResolveThreshold is the validation count at which a positive fix
// verification resolves a report.
const ResolveThreshold = 3

// ApplyVote records one community authenticity vote on r.
func ApplyVote(r *models.Report, vote models.VoteType) {
	r.ValidationCount++
	if vote == models.VoteReal {
		r.RealVotes++
	} else {
		r.FakeVotes++
	}
}

// ApplyFixVerification records one fix attestation on r and reports
// whether it moved r to Resolved.
//
// Every attestation counts towards ValidationCount, but only a positive
// one checks the threshold. Votes never resolve a report, even when they
// push ValidationCount past the threshold.
func ApplyFixVerification(r *models.Report, isFixed bool, now time.Time) bool {
	r.ValidationCount++
	if !isFixed || r.ValidationCount < ResolveThreshold || r.Status == models.StatusResolved {
		return false
	}
	r.Status = models.StatusResolved
	r.ResolvedAt = &now
	return true
}
