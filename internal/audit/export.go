package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the JSON document offered as a file download.
type Payload struct {
	GeneratedAt string  `json:"generated_at"`
	SiteURL     string  `json:"site_url"`
	Audit       *Result `json:"audit"`
}

// Exporter serializes audit results for download.
type Exporter struct {
	siteURL string
	now     func() time.Time
}

// NewExporter constructs an Exporter for the given site URL.
func NewExporter(siteURL string) *Exporter {
	return &Exporter{
		siteURL: siteURL,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// ExportJSON renders the pretty-printed export payload.
func (e *Exporter) ExportJSON(result *Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("audit: nothing to export")
	}
	payload := Payload{
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
		SiteURL:     e.siteURL,
		Audit:       result,
	}
	return json.MarshalIndent(payload, "", "  ")
}
