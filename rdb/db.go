package rdb

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	}
}

// OpenPostgres opens a Postgres-backed gorm handle from a connection string.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// OpenSQLite opens a SQLite-backed gorm handle from a file path or DSN.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), gormConfig())
}

// Setup creates the aggregates, commands, and events tables if they do not exist,
// including the (aggregate_id, version) uniqueness constraint on events.
func Setup(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&Aggregate{}, &Command{}, &Event{})
}

// Teardown drops the domain store tables. Only meant for tests and local dev.
func Teardown(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Migrator().DropTable(&Event{}, &Command{}, &Aggregate{})
}
