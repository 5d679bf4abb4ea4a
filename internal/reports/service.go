package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/fithub/internal/blob"
	"github.com/fdg312/fithub/internal/metrics"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Errors
var (
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrInvalidFormat    = fmt.Errorf("invalid format")
	ErrInvalidDate      = fmt.Errorf("invalid date format")
	ErrInvalidDateRange = fmt.Errorf("from date must not be after to date")
	ErrRangeTooLarge    = fmt.Errorf("date range too large")
)

// Service handles reports business logic
type Service struct {
	generator    *Generator
	blobStore    blob.Store // nil in local mode
	maxRangeDays int
	metrics      *metrics.Manager
	now          func() time.Time
}

// NewService creates a new reports service. blobStore may be nil, in
// which case reports are streamed back instead of archived.
func NewService(generator *Generator, blobStore blob.Store, maxRangeDays int, m *metrics.Manager) *Service {
	return &Service{
		generator:    generator,
		blobStore:    blobStore,
		maxRangeDays: maxRangeDays,
		metrics:      m,
		now:          time.Now,
	}
}

// CreateReport generates a report for the current user
func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (*Result, error) {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrUnauthorized
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	fromDate, err := time.Parse(time.DateOnly, req.From)
	if err != nil {
		return nil, ErrInvalidDate
	}
	toDate, err := time.Parse(time.DateOnly, req.To)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if fromDate.After(toDate) {
		return nil, ErrInvalidDateRange
	}
	// both ends inclusive
	if days := int(toDate.Sub(fromDate).Hours()/24) + 1; days > s.maxRangeDays {
		return nil, ErrRangeTooLarge
	}

	data, err := s.generator.GenerateReport(ctx, userID, req.From, req.To, format)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	id := uuid.New()
	result := &Result{
		Report: ReportDTO{
			ID:        id,
			Format:    format,
			From:      req.From,
			To:        req.To,
			SizeBytes: int64(len(data)),
			CreatedAt: s.now().UTC(),
		},
		ContentType: contentTypeFor(format),
		Filename:    fmt.Sprintf("fithub-report-%s-%s.%s", req.From, req.To, format),
	}

	if s.blobStore == nil {
		result.Data = data
		s.count(format, DeliveryStream)
		return result, nil
	}

	key := ObjectKey(userID, id, format)
	if _, err := s.blobStore.PutObject(ctx, key, data, result.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}
	url, err := s.blobStore.ObjectURL(ctx, key)
	if err != nil {
		if delErr := s.blobStore.DeleteObject(ctx, key); delErr != nil {
			log.WithError(delErr).WithField("key", key).Warn("reports: cleanup after url failure")
		}
		return nil, fmt.Errorf("failed to build download url: %w", err)
	}

	result.Report.ObjectKey = key
	result.Report.URL = url
	s.count(format, DeliveryBlob)
	log.WithFields(log.Fields{"user_id": userID, "key": key, "size": len(data)}).Info("reports: archived")
	return result, nil
}

// ObjectKey is the blob location of a report: reports/<user>/<id>.<ext>
func ObjectKey(userID, reportID uuid.UUID, format string) string {
	return fmt.Sprintf("reports/%s/%s.%s", userID, reportID, format)
}

func (s *Service) count(format, delivery string) {
	if s.metrics != nil {
		s.metrics.CounterReports.WithLabelValues(format, delivery).Inc()
	}
}
