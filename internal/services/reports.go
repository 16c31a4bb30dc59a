package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"civic_trust/internal/metrics"
	"civic_trust/internal/models"
	"civic_trust/internal/store"
)

type ReportInput struct {
	Type        string
	Description string
	Location    string
	Image       string
	Status      models.ReportStatus
	Area        string
	Ward        string
	Zone        string
	SLADeadline *time.Time
}

// CreateReport files a report on behalf of authorID. Counters always start
// at zero and the report goes to the head of the list.
func (s *CivicService) CreateReport(ctx context.Context, authorID string, in ReportInput) (models.Report, error) {
	in.Type = strings.TrimSpace(in.Type)
	in.Location = strings.TrimSpace(in.Location)
	if in.Type == "" || in.Location == "" {
		return models.Report{}, fmt.Errorf("%w: type and location are required", ErrValidation)
	}
	if in.Status == "" {
		in.Status = models.StatusInProgress
	}
	if !in.Status.Valid() {
		return models.Report{}, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}

	var report models.Report
	err := s.update(ctx, "create_report", func(tx *store.Tx) error {
		author, ok := tx.User(authorID)
		if !ok {
			return fmt.Errorf("%w: user %s", ErrNotFound, authorID)
		}
		report = models.Report{
			ID:          s.opts.NewID(),
			Type:        in.Type,
			Description: in.Description,
			Location:    in.Location,
			Image:       in.Image,
			Status:      in.Status,
			Author:      author.Name,
			AuthorID:    author.ID,
			Area:        in.Area,
			Ward:        in.Ward,
			Zone:        in.Zone,
			SLADeadline: in.SLADeadline,
			CreatedAt:   s.now(),
		}
		tx.PutReport(report)
		return nil
	})
	if err != nil {
		return models.Report{}, err
	}

	metrics.ReportsCreated.Inc()
	logrus.WithFields(logrus.Fields{"report_id": report.ID, "type": report.Type}).Info("report created")
	s.publish(EventReportCreated, report)
	return report, nil
}

// ListReports returns every report, newest first.
func (s *CivicService) ListReports() []models.Report {
	return s.store.Reports()
}

func (s *CivicService) GetReport(id string) (models.Report, error) {
	r, ok := s.store.FindReport(id)
	if !ok {
		return models.Report{}, fmt.Errorf("%w: report %s", ErrNotFound, id)
	}
	return r, nil
}

// RecordVote counts one real/fake vote by voterID. It never changes the
// report status.
func (s *CivicService) RecordVote(ctx context.Context, reportID, voterID string, vote models.VoteType) (models.Report, error) {
	if reportID == "" {
		return models.Report{}, fmt.Errorf("%w: report id is required", ErrValidation)
	}
	if !vote.Valid() {
		return models.Report{}, fmt.Errorf("%w: vote type must be \"real\" or \"fake\"", ErrValidation)
	}

	var report models.Report
	err := s.update(ctx, "record_vote", func(tx *store.Tx) error {
		r, ok := tx.Report(reportID)
		if !ok {
			return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
		}
		if voterID != "" {
			if s.opts.EnforceUniqueVotes && tx.HasVoted(reportID, voterID) {
				return fmt.Errorf("%w: already voted on this report", ErrConflict)
			}
			tx.AddVote(models.Vote{
				ID:        s.opts.NewID(),
				ReportID:  reportID,
				UserID:    voterID,
				Type:      vote,
				CreatedAt: s.now(),
			})
		}
		ApplyVote(&r, vote)
		tx.PutReport(r)
		report = r
		return nil
	})
	if err != nil {
		return models.Report{}, err
	}

	metrics.Votes.WithLabelValues(string(vote)).Inc()
	s.publish(EventReportVoted, report)
	return report, nil
}

// VerifyFix records a citizen's attestation that a fix is (or is not)
// done. The third validation with isFixed set resolves the report.
func (s *CivicService) VerifyFix(ctx context.Context, reportID string, isFixed bool) (models.Report, error) {
	if reportID == "" {
		return models.Report{}, fmt.Errorf("%w: report id is required", ErrValidation)
	}

	var (
		report   models.Report
		resolved bool
	)
	err := s.update(ctx, "verify_fix", func(tx *store.Tx) error {
		r, ok := tx.Report(reportID)
		if !ok {
			return fmt.Errorf("%w: report %s", ErrNotFound, reportID)
		}
		resolved = ApplyFixVerification(&r, isFixed, s.now())
		tx.PutReport(r)
		report = r
		return nil
	})
	if err != nil {
		return models.Report{}, err
	}

	metrics.FixVerifications.WithLabelValues(strconv.FormatBool(isFixed)).Inc()
	if resolved {
		metrics.AutoResolved.Inc()
		logrus.WithField("report_id", reportID).Info("report resolved by community verification")
	}
	s.publish(EventReportVerified, report)
	return report, nil
}
