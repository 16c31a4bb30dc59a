package services

import "civic_trust/internal/models"

// Jurisdiction is the slice of the city an admin may see.
type Jurisdiction struct {
	Level models.AdminLevel
	Area  string
	Zone  string
}

func JurisdictionOf(admin models.User) Jurisdiction {
	return Jurisdiction{Level: admin.AdminLevel, Area: admin.AssignedArea, Zone: admin.AssignedZone}
}

// Unrestricted is true for city-level admins and for ward/zone admins
// whose assignment is missing.
func (j Jurisdiction) Unrestricted() bool {
	switch j.Level {
	case models.AdminLevelWard:
		return j.Area == ""
	case models.AdminLevelZone:
		return j.Zone == ""
	}
	return true
}

// Allows uses exact string equality: a ward admin matches on either the
// report's area or its ward, a zone admin on its zone.
func (j Jurisdiction) Allows(r models.Report) bool {
	switch {
	case j.Unrestricted():
		return true
	case j.Level == models.AdminLevelWard:
		return r.Area == j.Area || r.Ward == j.Area
	case j.Level == models.AdminLevelZone:
		return r.Zone == j.Zone
	}
	return true
}

// FilterReports returns the reports visible in j, preserving order. The
// input slice is never modified.
func FilterReports(j Jurisdiction, reports []models.Report) []models.Report {
	if j.Unrestricted() {
		return reports
	}
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if j.Allows(r) {
			out = append(out, r)
		}
	}
	return out
}
