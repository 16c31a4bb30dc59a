package config

import (
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"civic_trust/internal/logger"
)

var lookupEnv = os.LookupEnv

// DSN builds the libpq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

// OpenDB connects to Postgres through the lib/pq driver with GORM logging
// routed to logrus.
func OpenDB(d DatabaseConfig) (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        d.DSN(),
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logger.GormLogger(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
