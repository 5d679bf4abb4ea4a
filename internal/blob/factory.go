package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/fdg312/fithub/internal/config"
	log "github.com/sirupsen/logrus"
)

// NewBlobStore builds a blob store using mode local|s3|auto.
// Local mode returns a nil store: reports are then streamed to the client.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		log.Info("blob: mode=local (forced)")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			logAtLevel(level, fmt.Sprintf("blob.s3: code=%s %s", code, msg))
			log.Infof("blob.s3: %s", cfg.S3.DiagnosticsSummary())
			log.Info("blob: mode=local (auto, S3 not configured)")
			return nil, appcfg.BlobModeLocal, nil
		}

		log.Infof("blob.s3: code=s3_ready %s", cfg.S3.DiagnosticsSummary())
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Warnf("blob.s3: init_failed=%q, fallback=local", err.Error())
			return nil, appcfg.BlobModeLocal, nil
		}

		log.Info("blob: mode=s3 (auto, configured)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			log.Errorf("blob.s3: code=s3_config_incomplete missing=%v", missing)
			log.Errorf("blob.s3: %s", cfg.S3.DiagnosticsSummary())
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		log.Infof("blob.s3: code=s3_ready %s", cfg.S3.DiagnosticsSummary())
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Errorf("blob.s3: init_failed=%v", err)
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		log.Info("blob: mode=s3 (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func logAtLevel(level, msg string) {
	switch strings.ToUpper(level) {
	case "WARN":
		log.Warn(msg)
	case "ERROR", "FATAL":
		log.Error(msg)
	default:
		log.Info(msg)
	}
}
