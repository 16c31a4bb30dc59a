// Package store keeps users, reports, contractors and the vote ledger in
// memory behind create/find/update operations.
//
// All reads return copies. All writes go through Update, which holds the
// single write lock for the whole read-modify-write sequence and only
// publishes the staged changes once the caller's commit hook (usually a
// durable write) succeeds.
package store

import (
	"sync"

	"civic_trust/internal/models"
)

type Store struct {
	mu sync.RWMutex

	users     map[string]models.User
	userOrder []string
	emails    map[string]string

	reports     map[string]models.Report
	reportOrder []string // newest first

	contractors     map[string]models.Contractor
	contractorOrder []string

	budget *models.Budget

	votes     []models.Vote
	voteIndex map[voteKey]struct{}
}

type voteKey struct {
	reportID string
	userID   string
}

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.users = make(map[string]models.User)
	s.userOrder = nil
	s.emails = make(map[string]string)
	s.reports = make(map[string]models.Report)
	s.reportOrder = nil
	s.contractors = make(map[string]models.Contractor)
	s.contractorOrder = nil
	s.budget = nil
	s.votes = nil
	s.voteIndex = make(map[voteKey]struct{})
}

// Load replaces the whole state with snap.
func (s *Store) Load(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for _, u := range snap.Users {
		if _, dup := s.users[u.ID]; dup {
			continue
		}
		s.users[u.ID] = u
		s.userOrder = append(s.userOrder, u.ID)
		s.emails[u.Email] = u.ID
	}
	for _, r := range snap.Reports {
		if _, dup := s.reports[r.ID]; dup {
			continue
		}
		s.reports[r.ID] = r
		s.reportOrder = append(s.reportOrder, r.ID)
	}
	for _, c := range snap.Contractors {
		if _, dup := s.contractors[c.ID]; dup {
			continue
		}
		s.contractors[c.ID] = c
		s.contractorOrder = append(s.contractorOrder, c.ID)
	}
	if snap.Budget != nil {
		b := *snap.Budget
		s.budget = &b
	}
	for _, v := range snap.Votes {
		s.votes = append(s.votes, v)
		s.voteIndex[voteKey{v.ReportID, v.UserID}] = struct{}{}
	}
}

// Snapshot returns a deep enough copy of the state to be serialized
// without holding the lock.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		Users:       make([]models.User, 0, len(s.userOrder)),
		Reports:     make([]models.Report, 0, len(s.reportOrder)),
		Contractors: make([]models.Contractor, 0, len(s.contractorOrder)),
		Votes:       append([]models.Vote(nil), s.votes...),
	}
	for _, id := range s.userOrder {
		snap.Users = append(snap.Users, s.users[id])
	}
	for _, id := range s.reportOrder {
		snap.Reports = append(snap.Reports, s.reports[id])
	}
	for _, id := range s.contractorOrder {
		snap.Contractors = append(snap.Contractors, s.contractors[id])
	}
	if s.budget != nil {
		b := *s.budget
		snap.Budget = &b
	}
	return snap
}

func (s *Store) FindReport(id string) (models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	return r, ok
}

// Reports lists every report, newest first.
func (s *Store) Reports() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Report, 0, len(s.reportOrder))
	for _, id := range s.reportOrder {
		out = append(out, s.reports[id])
	}
	return out
}

func (s *Store) FindUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) FindUserByEmail(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return models.User{}, false
	}
	return s.users[id], true
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out
}

func (s *Store) FindContractor(id string) (models.Contractor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contractors[id]
	return c, ok
}

func (s *Store) Contractors() []models.Contractor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Contractor, 0, len(s.contractorOrder))
	for _, id := range s.contractorOrder {
		out = append(out, s.contractors[id])
	}
	return out
}

// Budget returns nil when no budget has been recorded.
func (s *Store) Budget() *models.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.budget == nil {
		return nil
	}
	b := *s.budget
	return &b
}

// Update runs fn against a staged transaction while holding the write
// lock. If fn succeeds, commit is called with the snapshot the store would
// have after the change; the staged changes are applied only when commit
// returns nil. A nil commit applies unconditionally.
func (s *Store) Update(fn func(tx *Tx) error, commit func(models.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty() {
		return nil
	}
	if commit != nil {
		if err := commit(tx.snapshot()); err != nil {
			return err
		}
	}
	tx.apply()
	return nil
}
