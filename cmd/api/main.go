package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/fdg312/fithub/internal/config"
	"github.com/fdg312/fithub/internal/dbmigrate"
	"github.com/fdg312/fithub/internal/httpserver"
	"github.com/fdg312/fithub/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.LogFile,
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormat == "json",
	})

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.Infof("startup migrations: command=up using=%s", source)
		if err := dbmigrate.Run("up", dbURL, dbmigrate.DefaultMigrationsDir); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Info("startup migrations: completed")
	}

	validateProductionConfig(cfg)

	server, err := httpserver.New(cfg)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		server.Sweeper().Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Errorf("http server: %s", err)
		}
		stop()
	case <-ctx.Done():
		log.Warn("signal received, shutting down ...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to gracefully shutdown http server: %s", err)
	}
	<-sweeperDone

	if err := server.Close(); err != nil {
		log.Errorf("close storage: %s", err)
	}
	log.Warn("server shut down")
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are only reported as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Info("========== FitHub API ==========")
	log.Infof("  env              = %s", cfg.Env)
	log.Infof("  port             = %d", cfg.Port)
	log.Infof("  log              = level=%s format=%s file=%s", cfg.LogLevel, cfg.LogFormat, nonEmptyOrDash(cfg.LogFile))

	log.Info("---- database ----")
	log.Infof("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
	log.Infof("  pooled           = %s", setOrNot(cfg.DatabaseURLPooled))
	log.Infof("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
	log.Infof("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)
	if cfg.RunMigrationsOnStartup && cfg.DatabaseURLDirect == "" {
		log.Warn("  migrations_via   = (will fail: DATABASE_URL_DIRECT not set)")
	}

	log.Info("---- auth ----")
	log.Infof("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))
	log.Infof("  jwt_ttl_minutes  = %d", cfg.JWTTTLMinutes)
	log.Infof("  admin_emails     = %d", len(cfg.AdminEmails))
	log.Infof("  auth_rate_limit  = %d/min", cfg.AuthRateLimitPerMinute)

	log.Info("---- blob ----")
	log.Infof("  blob_mode        = %s", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal {
		log.Infof("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}
	log.Infof("  reports_max_range_days = %d", cfg.ReportsMaxRangeDays)

	log.Info("---- mailer ----")
	log.Infof("  email_sender     = %s", cfg.EmailSenderMode)
	switch cfg.EmailSenderMode {
	case "smtp":
		log.Infof("  smtp_host        = %s", nonEmptyOrDash(cfg.SMTPHost))
		log.Infof("  smtp_port        = %d", cfg.SMTPPort)
		log.Infof("  smtp_from        = %s", nonEmptyOrDash(cfg.SMTPFrom))
		log.Infof("  smtp_username    = %s", setOrNot(cfg.SMTPUsername))
		log.Infof("  smtp_password    = %s", setOrNot(cfg.SMTPPassword))
		log.Infof("  smtp_use_tls     = %t", cfg.SMTPUseTLS)
	case "resend":
		log.Infof("  resend_api_key   = %s", setOrNot(cfg.ResendAPIKey))
		log.Infof("  resend_from      = %s", nonEmptyOrDash(cfg.ResendFrom))
	default:
		log.Info("  (emails are written to the server log)")
	}

	log.Info("---- jobs ----")
	if cfg.MaintenanceSweepMinutes > 0 {
		log.Infof("  maintenance_sweep = every %dm", cfg.MaintenanceSweepMinutes)
	} else {
		log.Info("  maintenance_sweep = disabled")
	}
	log.Infof("  metrics          = %t", cfg.MetricsEnabled)

	log.Info("================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "prod" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: BLOB_MODE=s3 but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if cfg.EmailSenderMode == "smtp" {
		var missing []string
		if strings.TrimSpace(cfg.SMTPHost) == "" {
			missing = append(missing, "SMTP_HOST")
		}
		if cfg.SMTPPort <= 0 {
			missing = append(missing, "SMTP_PORT")
		}
		if strings.TrimSpace(cfg.SMTPFrom) == "" {
			missing = append(missing, "SMTP_FROM")
		}
		if len(missing) > 0 {
			log.Fatalf("FATAL mailer: EMAIL_SENDER_MODE=smtp but config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if isProd && cfg.JWTSecret == "change_me" {
		log.Fatalf("FATAL auth: JWT_SECRET must not be 'change_me' in %s", cfg.Env)
	}

	if isProd && cfg.DatabaseURL == "" {
		log.Fatalf("FATAL db: no DATABASE_URL configured in %s", cfg.Env)
	}
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
