package bootstrap

import (
	"database/sql"
	"fmt"

	"github.com/labelbridge/backend/internal/infrastructure/config"
	"github.com/labelbridge/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq" // postgres driver for database/sql
	"go.uber.org/zap"
)

// OpenMigrator connects a schema migrator to the configured database.
// Closing the migrator closes the connection.
func OpenMigrator(cfg *config.DatabaseConfig, log *zap.Logger) (*migration.Migrator, error) {
	if cfg.Driver != config.DriverPostgres {
		return migration.NewFromURL(cfg.MigrateURL(), migration.DriverSQLite, log)
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := migration.New(db, migration.DriverPostgres, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}
