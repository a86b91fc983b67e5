package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"assetgen/internal/domain"
)

// DefaultReportPath is where the session report lands when the caller does
// not pick an explicit location.
func DefaultReportPath(projectRoot string) string {
	return filepath.Join(projectRoot, "assets", "generated", "generation_report.json")
}

// WriteReport persists the session summary as indented JSON. The report is
// the durable machine-readable record of batch outcomes; it is written once
// and never updated.
func WriteReport(session *domain.Session, path string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: ensure directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
