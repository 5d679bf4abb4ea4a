package main

import (
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/fdg312/fithub/internal/config"
	"github.com/fdg312/fithub/internal/dbmigrate"
	"github.com/fdg312/fithub/internal/logging"
)

func main() {
	usage := "usage: go run ./cmd/migrate [" + strings.Join(dbmigrate.Commands, "|") + "] [args...]"
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	command := os.Args[1]
	if !dbmigrate.IsSupported(command) {
		log.Fatalf("unsupported command %q\n%s", command, usage)
	}

	cfg := config.Load()
	logging.Setup(logging.SetupParams{
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormat == "json",
	})

	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal(err)
	}

	if warning != "" {
		log.Warnf("migrate: %s", warning)
	}
	log.Infof("migrate: command=%s using=%s", command, source)

	if err := dbmigrate.Run(command, dbURL, dbmigrate.DefaultMigrationsDir, os.Args[2:]...); err != nil {
		log.Fatal(err)
	}

	log.Infof("migrate: %s completed successfully", command)
}
