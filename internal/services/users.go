package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"civic_trust/internal/models"
	"civic_trust/internal/store"
)

func newID() string {
	return uuid.NewString()
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type AdminInput struct {
	Name     string
	Email    string
	Password string
	Level    models.AdminLevel
	Area     string
	Zone     string
}

type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Level int    `json:"level"`
}

// SignUp registers a citizen with a zero civic score.
func (s *CivicService) SignUp(ctx context.Context, in SignupInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	return s.createUser(ctx, models.User{
		Name:  in.Name,
		Email: in.Email,
		Role:  models.RoleCitizen,
	}, in.Password)
}

// CreateAdmin registers an admin. Ward admins need an area and zone
// admins a zone.
func (s *CivicService) CreateAdmin(ctx context.Context, in AdminInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if !in.Level.Valid() {
		return models.User{}, fmt.Errorf("%w: admin level must be L1, L2 or L3", ErrValidation)
	}
	if in.Level == models.AdminLevelWard && in.Area == "" {
		return models.User{}, fmt.Errorf("%w: assigned area is required for L1 admins", ErrValidation)
	}
	if in.Level == models.AdminLevelZone && in.Zone == "" {
		return models.User{}, fmt.Errorf("%w: assigned zone is required for L2 admins", ErrValidation)
	}
	return s.createUser(ctx, models.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         models.RoleAdmin,
		AdminLevel:   in.Level,
		AssignedArea: in.Area,
		AssignedZone: in.Zone,
	}, in.Password)
}

func (s *CivicService) createUser(ctx context.Context, u models.User, password string) (models.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("could not hash password: %w", err)
	}
	u.ID = s.opts.NewID()
	u.Password = hash
	u.CreatedAt = s.now()

	err = s.update(ctx, "create_user", func(tx *store.Tx) error {
		if _, exists := tx.UserByEmail(u.Email); exists {
			return fmt.Errorf("%w: email already in use", ErrConflict)
		}
		tx.PutUser(u)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user created")
	return u, nil
}

// Authenticate checks an email/password pair.
func (s *CivicService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, ok := s.store.FindUserByEmail(strings.TrimSpace(email))
	if !ok {
		return models.User{}, fmt.Errorf("%w: user not found or invalid credentials", ErrUnauthorized)
	}
	if err := checkPassword(u.Password, password); err != nil {
		return models.User{}, fmt.Errorf("%w: incorrect password", ErrUnauthorized)
	}
	return u, nil
}

func (s *CivicService) GetUser(id string) (models.User, error) {
	u, ok := s.store.FindUser(id)
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return u, nil
}

// AwardScore adds points (possibly negative) to a citizen's civic score.
// The score never drops below zero.
func (s *CivicService) AwardScore(ctx context.Context, userID string, points int) (int, error) {
	var score int
	err := s.update(ctx, "award_score", func(tx *store.Tx) error {
		u, ok := tx.User(userID)
		if !ok {
			return fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		if u.Role != models.RoleCitizen {
			return fmt.Errorf("%w: only citizens earn civic score", ErrForbidden)
		}
		u.Score = max(u.Score+points, 0)
		score = u.Score
		tx.PutUser(u)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

// Leaderboard ranks citizens by score, highest first. limit <= 0 means
// no limit.
func (s *CivicService) Leaderboard(limit int) []LeaderboardEntry {
	var citizens []models.User
	for _, u := range s.store.Users() {
		if u.Role == models.RoleCitizen {
			citizens = append(citizens, u)
		}
	}
	slices.SortStableFunc(citizens, func(a, b models.User) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Name, b.Name)
	})
	if limit > 0 && len(citizens) > limit {
		citizens = citizens[:limit]
	}

	out := make([]LeaderboardEntry, 0, len(citizens))
	for i, u := range citizens {
		out = append(out, LeaderboardEntry{
			Rank:  i + 1,
			ID:    u.ID,
			Name:  u.Name,
			Score: u.Score,
			Level: u.Score/100 + 1,
		})
	}
	return out
}
