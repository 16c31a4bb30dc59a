package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic_trust/internal/models"
	"civic_trust/internal/persistence"
	"civic_trust/internal/store"
)

var fixedNow = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

// flakyGateway fails the next `failures` saves, then records snapshots.
type flakyGateway struct {
	mu       sync.Mutex
	failures int
	saves    int
	last     models.Snapshot
}

func (g *flakyGateway) Load(context.Context) (models.Snapshot, error) { return g.last, nil }
func (g *flakyGateway) Name() string                                  { return "flaky" }
func (g *flakyGateway) Close() error                                  { return nil }

func (g *flakyGateway) Save(_ context.Context, snap models.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves++
	if g.failures > 0 {
		g.failures--
		return errors.New("disk unavailable")
	}
	g.last = snap
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ReportEvent
}

func (p *recordingPublisher) Publish(ev ReportEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func newTestService(t *testing.T, gw persistence.Gateway, opts Options) *CivicService {
	t.Helper()
	seq := 0
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	opts.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	opts.RetryInterval = time.Millisecond
	return NewCivicService(store.New(), gw, opts)
}

func mustCitizen(t *testing.T, s *CivicService, name string) models.User {
	t.Helper()
	u, err := s.SignUp(context.Background(), SignupInput{Name: name, Email: name + "@example.com", Password: "secret"})
	require.NoError(t, err)
	return u
}

func TestCitizenSubmitsAndVotes(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	asha := mustCitizen(t, s, "asha")
	ravi := mustCitizen(t, s, "ravi")

	older, err := s.CreateReport(ctx, ravi.ID, ReportInput{Type: "Garbage", Location: "Market Road"})
	require.NoError(t, err)

	r, err := s.CreateReport(ctx, asha.ID, ReportInput{Type: "Pothole", Location: "12.9,77.6"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, r.Status)
	assert.Zero(t, r.ValidationCount)
	assert.Zero(t, r.RealVotes)
	assert.Zero(t, r.FakeVotes)
	assert.Equal(t, "asha", r.Author)

	list := s.ListReports()
	require.Len(t, list, 2)
	assert.Equal(t, r.ID, list[0].ID, "newest report first")
	assert.Equal(t, older.ID, list[1].ID)

	voted, err := s.RecordVote(ctx, r.ID, ravi.ID, models.VoteFake)
	require.NoError(t, err)
	assert.Equal(t, 0, voted.RealVotes)
	assert.Equal(t, 1, voted.FakeVotes)
	assert.Equal(t, 1, voted.ValidationCount)

	voted, err = s.RecordVote(ctx, r.ID, asha.ID, models.VoteReal)
	require.NoError(t, err)
	assert.Equal(t, 1, voted.RealVotes)
	assert.Equal(t, 1, voted.FakeVotes)
	assert.Equal(t, 2, voted.ValidationCount)
}

func TestRecordVoteErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	u := mustCitizen(t, s, "asha")
	r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
	require.NoError(t, err)

	_, err = s.RecordVote(ctx, "missing", u.ID, models.VoteReal)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RecordVote(ctx, r.ID, u.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.RecordVote(ctx, "", u.ID, models.VoteReal)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordVoteDuplicatePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("permissive by default", func(t *testing.T) {
		s := newTestService(t, &flakyGateway{}, Options{})
		u := mustCitizen(t, s, "asha")
		r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
		require.NoError(t, err)

		_, err = s.RecordVote(ctx, r.ID, u.ID, models.VoteReal)
		require.NoError(t, err)
		again, err := s.RecordVote(ctx, r.ID, u.ID, models.VoteReal)
		require.NoError(t, err)
		assert.Equal(t, 2, again.RealVotes)
	})

	t.Run("enforced", func(t *testing.T) {
		s := newTestService(t, &flakyGateway{}, Options{EnforceUniqueVotes: true})
		u := mustCitizen(t, s, "asha")
		other := mustCitizen(t, s, "ravi")
		r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
		require.NoError(t, err)

		_, err = s.RecordVote(ctx, r.ID, u.ID, models.VoteReal)
		require.NoError(t, err)
		_, err = s.RecordVote(ctx, r.ID, u.ID, models.VoteFake)
		assert.ErrorIs(t, err, ErrConflict)
		_, err = s.RecordVote(ctx, r.ID, other.ID, models.VoteFake)
		require.NoError(t, err)

		got, err := s.GetReport(r.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.RealVotes)
		assert.Equal(t, 1, got.FakeVotes)
	})
}

func TestVerifyFixResolvesOnThirdCall(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := newTestService(t, &flakyGateway{}, Options{Publisher: pub})
	u := mustCitizen(t, s, "asha")
	r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x", Status: models.StatusFixedUnverified})
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		got, err := s.VerifyFix(ctx, r.ID, true)
		require.NoError(t, err)
		assert.Equal(t, i, got.ValidationCount)
		assert.NotEqual(t, models.StatusResolved, got.Status)
	}
	got, err := s.VerifyFix(ctx, r.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, fixedNow.Equal(*got.ResolvedAt))

	_, err = s.VerifyFix(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)

	require.Len(t, pub.events, 4)
	assert.Equal(t, EventReportCreated, pub.events[0].Type)
	assert.Equal(t, EventReportVerified, pub.events[3].Type)
}

func TestCreateReportValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	u := mustCitizen(t, s, "asha")

	_, err := s.CreateReport(ctx, u.ID, ReportInput{Location: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x", Status: "Closed"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateReport(ctx, "ghost", ReportInput{Type: "Pothole", Location: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignUpAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})

	u := mustCitizen(t, s, "asha")
	assert.Equal(t, models.RoleCitizen, u.Role)
	assert.NotEqual(t, "secret", u.Password)

	_, err := s.SignUp(ctx, SignupInput{Name: "Other", Email: "asha@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.SignUp(ctx, SignupInput{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := s.Authenticate(ctx, "asha@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Authenticate(ctx, "ghost@example.com", "secret")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateAdminValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})

	tests := []struct {
		name string
		in   AdminInput
		ok   bool
	}{
		{"ward admin", AdminInput{Name: "A", Email: "a@x", Password: "p", Level: models.AdminLevelWard, Area: "Ward7"}, true},
		{"ward admin without area", AdminInput{Name: "B", Email: "b@x", Password: "p", Level: models.AdminLevelWard}, false},
		{"zone admin", AdminInput{Name: "C", Email: "c@x", Password: "p", Level: models.AdminLevelZone, Zone: "East"}, true},
		{"zone admin without zone", AdminInput{Name: "D", Email: "d@x", Password: "p", Level: models.AdminLevelZone, Area: "Ward7"}, false},
		{"city admin", AdminInput{Name: "E", Email: "e@x", Password: "p", Level: models.AdminLevelCity}, true},
		{"bad level", AdminInput{Name: "F", Email: "f@x", Password: "p", Level: "L4"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := s.CreateAdmin(ctx, tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, u.IsAdmin())
			assert.Equal(t, tt.in.Level, u.AdminLevel)
		})
	}
}

func TestAwardScore(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	u := mustCitizen(t, s, "asha")

	score, err := s.AwardScore(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, score)
	score, err = s.AwardScore(ctx, u.ID, -25)
	require.NoError(t, err)
	assert.Equal(t, 0, score, "score never goes negative")

	admin, err := s.CreateAdmin(ctx, AdminInput{Name: "Admin", Email: "admin@x", Password: "p", Level: models.AdminLevelCity})
	require.NoError(t, err)
	_, err = s.AwardScore(ctx, admin.ID, 5)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.AwardScore(ctx, "ghost", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	for name, pts := range map[string]int{"asha": 120, "ravi": 45, "meera": 120} {
		u := mustCitizen(t, s, name)
		_, err := s.AwardScore(ctx, u.ID, pts)
		require.NoError(t, err)
	}

	board := s.Leaderboard(2)
	require.Len(t, board, 2)
	assert.Equal(t, "asha", board[0].Name)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 2, board[0].Level)
	assert.Equal(t, "meera", board[1].Name)
	assert.Len(t, s.Leaderboard(0), 3)
}

func TestAdminStatsZoneScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	u := mustCitizen(t, s, "asha")
	mustCitizen(t, s, "ravi")

	admin, err := s.CreateAdmin(ctx, AdminInput{Name: "Zone East", Email: "east@city.gov", Password: "p", Level: models.AdminLevelZone, Zone: "East"})
	require.NoError(t, err)

	_, err = s.CreateContractor(ctx, ContractorInput{Name: "RoadFix"})
	require.NoError(t, err)
	_, err = s.CreateContractor(ctx, ContractorInput{Name: "Idle Co", Status: "Inactive"})
	require.NoError(t, err)

	east, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "a", Zone: "East"})
	require.NoError(t, err)
	_, err = s.CreateReport(ctx, u.ID, ReportInput{Type: "Garbage", Location: "b", Zone: "East"})
	require.NoError(t, err)
	west, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Streetlight", Location: "c", Zone: "West"})
	require.NoError(t, err)

	_, err = s.UpdateReportStatus(ctx, east.ID, models.StatusResolved)
	require.NoError(t, err)
	_, err = s.UpdateReportStatus(ctx, west.ID, models.StatusResolved)
	require.NoError(t, err)

	st, err := s.AdminStats(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalComplaints)
	assert.Equal(t, 1, st.ResolvedIssues)
	assert.Equal(t, 50.0, st.ResolutionRate)
	assert.Equal(t, 1, st.PendingIssues)
	assert.Equal(t, 2, st.Citizens)
	assert.Equal(t, 1, st.ActiveContractors)
	assert.Equal(t, models.DefaultBudget(), st.Budget)
	assert.Equal(t, AdminInfo{Level: models.AdminLevelZone, Name: "Zone East", AssignedArea: "N/A", AssignedZone: "East"}, st.AdminInfo)

	visible, err := s.VisibleReports(admin.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	_, err = s.AdminStats(u.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.AdminStats("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSLAComplianceThroughAssignment(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	u := mustCitizen(t, s, "asha")
	admin, err := s.CreateAdmin(ctx, AdminInput{Name: "City", Email: "city@x", Password: "p", Level: models.AdminLevelCity})
	require.NoError(t, err)
	c, err := s.CreateContractor(ctx, ContractorInput{Name: "RoadFix"})
	require.NoError(t, err)

	r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
	require.NoError(t, err)

	deadline := fixedNow.Add(48 * time.Hour)
	assigned, err := s.AssignContractor(ctx, r.ID, c.ID, &deadline)
	require.NoError(t, err)
	assert.Equal(t, c.ID, assigned.AssignedContractor)
	require.NotNil(t, assigned.AssignedAt)
	require.NotNil(t, assigned.SLADeadline)

	_, err = s.UpdateReportStatus(ctx, r.ID, models.StatusResolved)
	require.NoError(t, err)

	st, err := s.AdminStats(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, st.SLACompliance)

	_, err = s.AssignContractor(ctx, r.ID, "ghost", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AssignContractor(ctx, "ghost", c.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AssignContractor(ctx, r.ID, "", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminStatusOverrideIsUnrestricted(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	u := mustCitizen(t, s, "asha")
	r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
	require.NoError(t, err)

	for _, status := range []models.ReportStatus{models.StatusResolved, models.StatusPendingValidation, models.StatusFixedUnverified, models.StatusInProgress} {
		got, err := s.UpdateReportStatus(ctx, r.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	_, err = s.UpdateReportStatus(ctx, r.ID, "Archived")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.UpdateReportStatus(ctx, "ghost", models.StatusResolved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCitizens(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	asha := mustCitizen(t, s, "asha")
	mustCitizen(t, s, "ravi")
	_, err := s.CreateAdmin(ctx, AdminInput{Name: "City", Email: "city@x", Password: "p", Level: models.AdminLevelCity})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := s.CreateReport(ctx, asha.ID, ReportInput{Type: "Pothole", Location: "x"})
		require.NoError(t, err)
	}

	citizens := s.ListCitizens()
	require.Len(t, citizens, 2)
	assert.Equal(t, "asha", citizens[0].Name)
	assert.Equal(t, 2, citizens[0].ReportsSubmitted)
	assert.Equal(t, 0, citizens[1].ReportsSubmitted)
	assert.Equal(t, fixedNow.Format(time.RFC3339), citizens[0].JoinedAt)
}

func TestSetBudget(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})

	b, err := s.SetBudget(ctx, models.Budget{Allocated: 200, Utilized: 50})
	require.NoError(t, err)
	assert.Equal(t, 25.0, b.Percentage)

	_, err = s.SetBudget(ctx, models.Budget{Allocated: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPersistenceFailClosed(t *testing.T) {
	ctx := context.Background()
	gw := &flakyGateway{}
	s := newTestService(t, gw, Options{Retries: 1})
	u := mustCitizen(t, s, "asha")
	r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
	require.NoError(t, err)

	gw.failures = 1
	voted, err := s.RecordVote(ctx, r.ID, u.ID, models.VoteReal)
	require.NoError(t, err, "a single failure is retried")
	assert.Equal(t, 1, voted.RealVotes)

	gw.failures = 5
	_, err = s.RecordVote(ctx, r.ID, u.ID, models.VoteReal)
	assert.ErrorIs(t, err, ErrPersistence)

	got, err := s.GetReport(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RealVotes, "failed write leaves memory unchanged")
}

func TestPersistenceBestEffort(t *testing.T) {
	ctx := context.Background()
	gw := &flakyGateway{}
	s := newTestService(t, gw, Options{BestEffort: true})
	u := mustCitizen(t, s, "asha")
	r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
	require.NoError(t, err)

	gw.failures = 1
	voted, err := s.RecordVote(ctx, r.ID, u.ID, models.VoteReal)
	require.NoError(t, err)
	assert.Equal(t, 1, voted.RealVotes)

	got, err := s.GetReport(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RealVotes, "legacy mode keeps the change")
}

func TestConcurrentVotesAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &flakyGateway{}, Options{})
	u := mustCitizen(t, s, "asha")
	r, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "x"})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vote := models.VoteReal
			if i%2 == 1 {
				vote = models.VoteFake
			}
			_, err := s.RecordVote(ctx, r.ID, "", vote)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetReport(r.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.ValidationCount)
	assert.Equal(t, n/2, got.RealVotes)
	assert.Equal(t, n/2, got.FakeVotes)
}

func TestRestoreFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	first := newTestService(t, persistence.NewFileGateway(path), Options{})
	u := mustCitizen(t, first, "asha")
	r, err := first.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "12.9,77.6", Ward: "Ward7"})
	require.NoError(t, err)
	_, err = first.RecordVote(ctx, r.ID, u.ID, models.VoteReal)
	require.NoError(t, err)

	second := newTestService(t, persistence.NewFileGateway(path), Options{})
	require.NoError(t, second.Restore(ctx))

	got, err := second.GetReport(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RealVotes)
	assert.Equal(t, "Ward7", got.Ward)

	_, err = second.Authenticate(ctx, "asha@example.com", "secret")
	assert.NoError(t, err)
}

func TestSLAComplianceThroughCommunityResolution(t *testing.T) {
	ctx := context.Background()
	clock := fixedNow
	s := newTestService(t, &flakyGateway{}, Options{Now: func() time.Time { return clock }})
	u := mustCitizen(t, s, "asha")
	admin, err := s.CreateAdmin(ctx, AdminInput{Name: "City", Email: "city@x", Password: "p", Level: models.AdminLevelCity})
	require.NoError(t, err)
	c, err := s.CreateContractor(ctx, ContractorInput{Name: "RoadFix"})
	require.NoError(t, err)

	onTime, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Pothole", Location: "a"})
	require.NoError(t, err)
	late, err := s.CreateReport(ctx, u.ID, ReportInput{Type: "Garbage", Location: "b"})
	require.NoError(t, err)

	deadline := fixedNow.Add(24 * time.Hour)
	for _, id := range []string{onTime.ID, late.ID} {
		_, err := s.AssignContractor(ctx, id, c.ID, &deadline)
		require.NoError(t, err)
	}

	// Resolved early by an admin, then reopened.
	_, err = s.UpdateReportStatus(ctx, late.ID, models.StatusResolved)
	require.NoError(t, err)
	reopened, err := s.UpdateReportStatus(ctx, late.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedAt, "reopening clears the resolution time")

	clock = fixedNow.Add(time.Hour)
	for i := 0; i < 3; i++ {
		_, err := s.VerifyFix(ctx, onTime.ID, true)
		require.NoError(t, err)
	}

	clock = fixedNow.Add(72 * time.Hour)
	var got models.Report
	for i := 0; i < 3; i++ {
		got, err = s.VerifyFix(ctx, late.ID, true)
		require.NoError(t, err)
	}
	assert.Equal(t, models.StatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, clock.Equal(*got.ResolvedAt), "community resolution stamps its own time")

	st, err := s.AdminStats(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.ResolvedIssues)
	assert.Equal(t, 50.0, st.SLACompliance, "only the on-time report meets its deadline")
}
