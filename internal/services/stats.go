package services

import (
	"math"

	"civic_trust/internal/models"
)

type StatsInput struct {
	Reports     []models.Report // already filtered to the caller's jurisdiction
	Users       []models.User
	Contractors []models.Contractor
	Budget      *models.Budget
}

type Stats struct {
	TotalComplaints   int           `json:"totalComplaints"`
	ResolvedIssues    int           `json:"resolvedIssues"`
	ResolutionRate    float64       `json:"resolutionRate"`
	PendingIssues     int           `json:"pendingIssues"`
	SLACompliance     float64       `json:"slaCompliance"`
	ActiveContractors int           `json:"activeContractors"`
	Budget            models.Budget `json:"budget"`
	Citizens          int           `json:"citizens"`
}

// Aggregate reduces the inputs to the dashboard figures. Report counts
// come from in.Reports; citizens and contractors are always global.
func Aggregate(in StatsInput) Stats {
	var st Stats
	var slaMet int

	st.TotalComplaints = len(in.Reports)
	for _, r := range in.Reports {
		switch r.Status {
		case models.StatusResolved:
			st.ResolvedIssues++
			if r.SLADeadline != nil && r.ResolvedAt != nil && !r.ResolvedAt.After(*r.SLADeadline) {
				slaMet++
			}
		case models.StatusInProgress, models.StatusPendingValidation:
			st.PendingIssues++
		}
	}
	st.ResolutionRate = percentage(st.ResolvedIssues, st.TotalComplaints)
	st.SLACompliance = percentage(slaMet, st.TotalComplaints)

	for _, u := range in.Users {
		if u.Role == models.RoleCitizen {
			st.Citizens++
		}
	}
	for _, c := range in.Contractors {
		if c.Status == models.ContractorActive {
			st.ActiveContractors++
		}
	}

	if in.Budget != nil {
		st.Budget = *in.Budget
	} else {
		st.Budget = models.DefaultBudget()
	}
	return st
}

// percentage is part/total*100 rounded to one decimal, or 0 for an empty
// total.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
