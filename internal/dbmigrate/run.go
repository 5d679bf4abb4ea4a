package dbmigrate

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Commands accepted by cmd/migrate.
var Commands = []string{"up", "down", "status", "version", "redo", "reset"}

func IsSupported(command string) bool {
	for _, c := range Commands {
		if c == command {
			return true
		}
	}
	return false
}

// Run applies a goose command to the database at dbURL.
func Run(command string, dbURL string, migrationsDir string, args ...string) error {
	if !IsSupported(command) {
		return fmt.Errorf("unsupported migration command %q", command)
	}
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if migrationsDir == "" {
		migrationsDir = DefaultMigrationsDir
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetLogger(log.StandardLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	log.Infof("migrations: command=%s dir=%s", command, migrationsDir)
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}
