package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"civic_trust/internal/metrics"
	"civic_trust/internal/models"
	"civic_trust/internal/store"
)

type AdminInfo struct {
	Level        models.AdminLevel `json:"level"`
	Name         string            `json:"name"`
	AssignedArea string            `json:"assignedArea"`
	AssignedZone string            `json:"assignedZone"`
}

type AdminStats struct {
	Stats
	AdminInfo AdminInfo `json:"adminInfo"`
}

type CitizenSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Score            int    `json:"score"`
	ReportsSubmitted int    `json:"reportsSubmitted"`
	JoinedAt         string `json:"joinedAt"`
}

type ContractorInput struct {
	Name      string
	Specialty string
	Phone     string
	Status    string
}

// admin resolves the calling admin's account.
func (s *CivicService) admin(adminID string) (models.User, error) {
	u, ok := s.store.FindUser(adminID)
	if !ok {
		return models.User{}, fmt.Errorf("%w: admin account %s", ErrNotFound, adminID)
	}
	if !u.IsAdmin() {
		return models.User{}, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return u, nil
}

// VisibleReports lists the reports inside the admin's jurisdiction.
func (s *CivicService) VisibleReports(adminID string) ([]models.Report, error) {
	admin, err := s.admin(adminID)
	if err != nil {
		return nil, err
	}
	return FilterReports(JurisdictionOf(admin), s.store.Reports()), nil
}

// AdminStats aggregates the admin's visible reports together with the
// global citizen and contractor counts.
func (s *CivicService) AdminStats(adminID string) (AdminStats, error) {
	admin, err := s.admin(adminID)
	if err != nil {
		return AdminStats{}, err
	}
	snap := s.store.Snapshot()
	stats := Aggregate(StatsInput{
		Reports:     FilterReports(JurisdictionOf(admin), snap.Reports),
		Users:       snap.Users,
		Contractors: snap.Contractors,
		Budget:      snap.Budget,
	})

	info := AdminInfo{
		Level:        admin.AdminLevel,
		Name:         admin.Name,
		AssignedArea: admin.AssignedArea,
		AssignedZone: admin.AssignedZone,
	}
	if info.AssignedArea == "" {
		info.AssignedArea = "N/A"
	}
	if info.AssignedZone == "" {
		info.AssignedZone = "All Zones"
	}
	return AdminStats{Stats: stats, AdminInfo: info}, nil
}

// UpdateReportStatus is the admin override: any status may move to any
// other. Setting Resolved stamps ResolvedAt; any other status clears it.
func (s *CivicService) UpdateReportStatus(ctx context.Context, reportID string, status models.ReportStatus) (models.Report, error) {
	if reportID == "" {
		return models.Report{}, fmt.Errorf("%w: report id is required", ErrValidation)
	}
	if !status.Valid() {
		return models.Report{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var report models.Report
	err := s.update(ctx, "update_status", func(tx *store.Tx) error {
		r, ok := tx.Report(reportID)
		if !ok {
			return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
		}
		r.Status = status
		if status == models.StatusResolved {
			now := s.now()
			r.ResolvedAt = &now
		} else {
			r.ResolvedAt = nil
		}
		tx.PutReport(r)
		report = r
		return nil
	})
	if err != nil {
		return models.Report{}, err
	}

	metrics.StatusChanges.WithLabelValues(string(status)).Inc()
	logrus.WithFields(logrus.Fields{"report_id": reportID, "status": status}).Info("report status updated")
	s.publish(EventReportStatus, report)
	return report, nil
}

// AssignContractor hands a report to a registered contractor. A non-nil
// slaDeadline replaces the report's deadline.
func (s *CivicService) AssignContractor(ctx context.Context, reportID, contractorID string, slaDeadline *time.Time) (models.Report, error) {
	if reportID == "" || contractorID == "" {
		return models.Report{}, fmt.Errorf("%w: report id and contractor id are required", ErrValidation)
	}

	var report models.Report
	err := s.update(ctx, "assign_contractor", func(tx *store.Tx) error {
		r, ok := tx.Report(reportID)
		if !ok {
			return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
		}
		if _, ok := tx.Contractor(contractorID); !ok {
			return fmt.Errorf("%w: contractor %s", ErrNotFound, contractorID)
		}
		now := s.now()
		r.AssignedContractor = contractorID
		r.AssignedAt = &now
		if slaDeadline != nil {
			d := slaDeadline.UTC()
			r.SLADeadline = &d
		}
		tx.PutReport(r)
		report = r
		return nil
	})
	if err != nil {
		return models.Report{}, err
	}

	logrus.WithFields(logrus.Fields{"report_id": reportID, "contractor_id": contractorID}).Info("contractor assigned")
	s.publish(EventReportAssigned, report)
	return report, nil
}

func (s *CivicService) ListContractors() []models.Contractor {
	return s.store.Contractors()
}

func (s *CivicService) CreateContractor(ctx context.Context, in ContractorInput) (models.Contractor, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.Contractor{}, fmt.Errorf("%w: contractor name is required", ErrValidation)
	}
	if in.Status == "" {
		in.Status = models.ContractorActive
	}
	c := models.Contractor{
		ID:        s.opts.NewID(),
		Name:      in.Name,
		Specialty: in.Specialty,
		Phone:     in.Phone,
		Status:    in.Status,
		CreatedAt: s.now(),
	}
	err := s.update(ctx, "create_contractor", func(tx *store.Tx) error {
		tx.PutContractor(c)
		return nil
	})
	if err != nil {
		return models.Contractor{}, err
	}
	return c, nil
}

// ListCitizens summarizes every citizen with the number of reports they
// filed.
func (s *CivicService) ListCitizens() []CitizenSummary {
	snap := s.store.Snapshot()
	out := make([]CitizenSummary, 0)
	for _, u := range snap.Users {
		if u.Role != models.RoleCitizen {
			continue
		}
		sum := CitizenSummary{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			Score:    u.Score,
			JoinedAt: "N/A",
		}
		if !u.CreatedAt.IsZero() {
			sum.JoinedAt = u.CreatedAt.Format(time.RFC3339)
		}
		for _, r := range snap.Reports {
			if r.AuthorID == u.ID || (r.AuthorID == "" && r.Author == u.Name) {
				sum.ReportsSubmitted++
			}
		}
		out = append(out, sum)
	}
	return out
}

func (s *CivicService) SetBudget(ctx context.Context, b models.Budget) (models.Budget, error) {
	if b.Allocated < 0 || b.Utilized < 0 {
		return models.Budget{}, fmt.Errorf("%w: budget figures must not be negative", ErrValidation)
	}
	if b.Percentage == 0 && b.Allocated > 0 {
		b.Percentage = math.Round(b.Utilized/b.Allocated*1000) / 10
	}
	b.ID = 0
	err := s.update(ctx, "set_budget", func(tx *store.Tx) error {
		tx.SetBudget(b)
		return nil
	})
	if err != nil {
		return models.Budget{}, err
	}
	return b, nil
}
