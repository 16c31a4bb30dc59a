package store

import "civic_trust/internal/models"

// Tx stages changes against a Store. Reads see staged values first.
// A Tx is only valid inside the Update call that created it.
type Tx struct {
	s *Store

	users    map[string]models.User
	newUsers []string

	reports    map[string]models.Report
	newReports []string // in insertion order; each is placed at the head

	contractors    map[string]models.Contractor
	newContractors []string

	budget *models.Budget
	votes  []models.Vote
}

func newTx(s *Store) *Tx {
	return &Tx{
		s:           s,
		users:       make(map[string]models.User),
		reports:     make(map[string]models.Report),
		contractors: make(map[string]models.Contractor),
	}
}

func (tx *Tx) dirty() bool {
	return len(tx.users) > 0 || len(tx.reports) > 0 || len(tx.contractors) > 0 ||
		tx.budget != nil || len(tx.votes) > 0
}

func (tx *Tx) Report(id string) (models.Report, bool) {
	if r, ok := tx.reports[id]; ok {
		return r, true
	}
	r, ok := tx.s.reports[id]
	return r, ok
}

// PutReport updates an existing report in place or inserts a new one at
// the head of the report sequence.
func (tx *Tx) PutReport(r models.Report) {
	_, staged := tx.reports[r.ID]
	_, stored := tx.s.reports[r.ID]
	if !staged && !stored {
		tx.newReports = append(tx.newReports, r.ID)
	}
	tx.reports[r.ID] = r
}

func (tx *Tx) User(id string) (models.User, bool) {
	if u, ok := tx.users[id]; ok {
		return u, true
	}
	u, ok := tx.s.users[id]
	return u, ok
}

func (tx *Tx) UserByEmail(email string) (models.User, bool) {
	for _, u := range tx.users {
		if u.Email == email {
			return u, true
		}
	}
	id, ok := tx.s.emails[email]
	if !ok {
		return models.User{}, false
	}
	return tx.User(id)
}

func (tx *Tx) PutUser(u models.User) {
	_, staged := tx.users[u.ID]
	_, stored := tx.s.users[u.ID]
	if !staged && !stored {
		tx.newUsers = append(tx.newUsers, u.ID)
	}
	tx.users[u.ID] = u
}

func (tx *Tx) Contractor(id string) (models.Contractor, bool) {
	if c, ok := tx.contractors[id]; ok {
		return c, true
	}
	c, ok := tx.s.contractors[id]
	return c, ok
}

func (tx *Tx) PutContractor(c models.Contractor) {
	_, staged := tx.contractors[c.ID]
	_, stored := tx.s.contractors[c.ID]
	if !staged && !stored {
		tx.newContractors = append(tx.newContractors, c.ID)
	}
	tx.contractors[c.ID] = c
}

func (tx *Tx) SetBudget(b models.Budget) {
	tx.budget = &b
}

// HasVoted reports whether userID already has a ledger entry for reportID.
func (tx *Tx) HasVoted(reportID, userID string) bool {
	if _, ok := tx.s.voteIndex[voteKey{reportID, userID}]; ok {
		return true
	}
	for _, v := range tx.votes {
		if v.ReportID == reportID && v.UserID == userID {
			return true
		}
	}
	return false
}

func (tx *Tx) AddVote(v models.Vote) {
	tx.votes = append(tx.votes, v)
}

// snapshot builds the state the store would have after apply.
func (tx *Tx) snapshot() models.Snapshot {
	s := tx.s
	snap := models.Snapshot{
		Users:       make([]models.User, 0, len(s.userOrder)+len(tx.newUsers)),
		Reports:     make([]models.Report, 0, len(s.reportOrder)+len(tx.newReports)),
		Contractors: make([]models.Contractor, 0, len(s.contractorOrder)+len(tx.newContractors)),
	}

	for _, id := range s.userOrder {
		u, _ := tx.User(id)
		snap.Users = append(snap.Users, u)
	}
	for _, id := range tx.newUsers {
		snap.Users = append(snap.Users, tx.users[id])
	}

	for i := len(tx.newReports) - 1; i >= 0; i-- {
		snap.Reports = append(snap.Reports, tx.reports[tx.newReports[i]])
	}
	for _, id := range s.reportOrder {
		r, _ := tx.Report(id)
		snap.Reports = append(snap.Reports, r)
	}

	for _, id := range s.contractorOrder {
		c, _ := tx.Contractor(id)
		snap.Contractors = append(snap.Contractors, c)
	}
	for _, id := range tx.newContractors {
		snap.Contractors = append(snap.Contractors, tx.contractors[id])
	}

	switch {
	case tx.budget != nil:
		b := *tx.budget
		snap.Budget = &b
	case s.budget != nil:
		b := *s.budget
		snap.Budget = &b
	}

	snap.Votes = make([]models.Vote, 0, len(s.votes)+len(tx.votes))
	snap.Votes = append(snap.Votes, s.votes...)
	snap.Votes = append(snap.Votes, tx.votes...)
	return snap
}

func (tx *Tx) apply() {
	s := tx.s
	for id, u := range tx.users {
		if old, ok := s.users[id]; ok && old.Email != u.Email {
			delete(s.emails, old.Email)
		}
		s.users[id] = u
		s.emails[u.Email] = id
	}
	s.userOrder = append(s.userOrder, tx.newUsers...)

	for id, r := range tx.reports {
		s.reports[id] = r
	}
	if len(tx.newReports) > 0 {
		order := make([]string, 0, len(s.reportOrder)+len(tx.newReports))
		for i := len(tx.newReports) - 1; i >= 0; i-- {
			order = append(order, tx.newReports[i])
		}
		s.reportOrder = append(order, s.reportOrder...)
	}

	for id, c := range tx.contractors {
		s.contractors[id] = c
	}
	s.contractorOrder = append(s.contractorOrder, tx.newContractors...)

	if tx.budget != nil {
		b := *tx.budget
		s.budget = &b
	}

	for _, v := range tx.votes {
		s.votes = append(s.votes, v)
		s.voteIndex[voteKey{v.ReportID, v.UserID}] = struct{}{}
	}
}
