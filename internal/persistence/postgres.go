package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"civic_trust/internal/models"
)

const budgetRowID = 1

// PostgresGateway stores each entity in its own table. Entities are never
// deleted, so saving a snapshot is a batch of upserts in one transaction.
type PostgresGateway struct {
	db *gorm.DB
}

func NewPostgresGateway(db *gorm.DB) (*PostgresGateway, error) {
	err := db.AutoMigrate(&models.User{}, &models.Report{}, &models.Contractor{}, &models.Budget{}, &models.Vote{})
	if err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}
	return &PostgresGateway{db: db}, nil
}

func (g *PostgresGateway) Name() string { return "postgres" }

func (g *PostgresGateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *PostgresGateway) Load(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	db := g.db.WithContext(ctx)

	if err := db.Order("created_at asc").Find(&snap.Users).Error; err != nil {
		return snap, wrapPQ("load users", err)
	}
	if err := db.Order("created_at desc").Find(&snap.Reports).Error; err != nil {
		return snap, wrapPQ("load reports", err)
	}
	if err := db.Order("created_at asc").Find(&snap.Contractors).Error; err != nil {
		return snap, wrapPQ("load contractors", err)
	}
	if err := db.Order("created_at asc").Find(&snap.Votes).Error; err != nil {
		return snap, wrapPQ("load votes", err)
	}

	var budget models.Budget
	err := db.First(&budget, budgetRowID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return snap, wrapPQ("load budget", err)
	default:
		snap.Budget = &budget
	}
	return snap, nil
}

func (g *PostgresGateway) Save(ctx context.Context, snap models.Snapshot) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// gorm statements are single use; start a new one per batch.
		upsert := func(v interface{}) error {
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(v).Error
		}
		if len(snap.Users) > 0 {
			if err := upsert(&snap.Users); err != nil {
				return wrapPQ("save users", err)
			}
		}
		if len(snap.Reports) > 0 {
			if err := upsert(&snap.Reports); err != nil {
				return wrapPQ("save reports", err)
			}
		}
		if len(snap.Contractors) > 0 {
			if err := upsert(&snap.Contractors); err != nil {
				return wrapPQ("save contractors", err)
			}
		}
		if len(snap.Votes) > 0 {
			if err := upsert(&snap.Votes); err != nil {
				return wrapPQ("save votes", err)
			}
		}
		if snap.Budget != nil {
			budget := *snap.Budget
			budget.ID = budgetRowID
			if err := upsert(&budget); err != nil {
				return wrapPQ("save budget", err)
			}
		}
		return nil
	})
}

// wrapPQ logs the Postgres error code, if any, and wraps err.
func wrapPQ(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		logrus.WithFields(logrus.Fields{
			"op":         op,
			"code":       string(pqErr.Code),
			"constraint": pqErr.Constraint,
		}).Error("postgres error")
	}
	return fmt.Errorf("%s: %w", op, err)
}
