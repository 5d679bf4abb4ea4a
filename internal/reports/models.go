package reports

import (
	"time"

	"github.com/google/uuid"
)

// Constants for validation
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	DeliveryBlob   = "blob"
	DeliveryStream = "stream"
)

// CreateReportRequest is the request to create a new report
type CreateReportRequest struct {
	From   string `json:"from"`   // YYYY-MM-DD
	To     string `json:"to"`     // YYYY-MM-DD
	Format string `json:"format"` // "pdf" or "csv"
}

// ReportDTO is the response when the report was archived in blob storage
type ReportDTO struct {
	ID        uuid.UUID `json:"id"`
	Format    string    `json:"format"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is a generated report. Data is set only when it must be streamed.
type Result struct {
	Report      ReportDTO
	Data        []byte
	ContentType string
	Filename    string
}

func contentTypeFor(format string) string {
	if format == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}
