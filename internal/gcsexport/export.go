// Package gcsexport writes generated insight batches to Cloud Storage as
// dated JSON snapshots.
package gcsexport

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// DefaultPrefix is the object prefix snapshots go under when none is given.
const DefaultPrefix = "insights"

// ObjectWriter stores one object. GCSWriter is the Cloud Storage implementation.
type ObjectWriter interface {
	WriteObject(ctx context.Context, bucket, object, contentType string, data []byte) error
}

// Snapshot is the JSON document written per export.
type Snapshot struct {
	ExportedAt time.Time        `json:"exported_at"`
	Count      int              `json:"count"`
	Insights   []domain.Insight `json:"insights"`
}

// SnapshotObjectName returns prefix/YYYY/MM/DD/insights-<unix>.json for t in UTC.
func SnapshotObjectName(prefix string, t time.Time) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	t = t.UTC()
	return path.Join(prefix, t.Format("2006/01/02"), fmt.Sprintf("insights-%d.json", t.Unix()))
}

// ExportInsights writes list as an indented JSON snapshot and returns its gs:// URI.
func ExportInsights(ctx context.Context, w ObjectWriter, bucket, object string, list []domain.Insight, exportedAt time.Time) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("ExportInsights: bucket is required")
	}
	if list == nil {
		list = []domain.Insight{}
	}

	data, err := json.MarshalIndent(Snapshot{
		ExportedAt: exportedAt.UTC(),
		Count:      len(list),
		Insights:   list,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ExportInsights: encoding snapshot: %w", err)
	}

	if err := w.WriteObject(ctx, bucket, object, "application/json", data); err != nil {
		return "", fmt.Errorf("ExportInsights: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}

// GCSWriter writes objects with a shared storage client.
type GCSWriter struct {
	client  *storage.Client
	timeout time.Duration
}

// NewGCSWriter uses Application Default Credentials.
func NewGCSWriter(ctx context.Context) (*GCSWriter, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSWriter: creating storage client: %w", err)
	}
	return &GCSWriter{client: client, timeout: 2 * time.Minute}, nil
}

func (g *GCSWriter) Close() error {
	return g.client.Close()
}

func (g *GCSWriter) WriteObject(ctx context.Context, bucket, object, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", bucket, object, err)
	}
	// Close finalizes the upload and reports its error.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

var _ ObjectWriter = (*GCSWriter)(nil)
