package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

const (
	systemWidth = 20
	countWidth  = 5
	tableWidth  = 85
)

// WriteTable prints the report as a fixed-width table.
func (r *Report) WriteTable(w io.Writer) error {
	labels := make([]string, len(r.Metrics))
	widths := make([]int, len(r.Metrics))
	for i, name := range r.Metrics {
		labels[i] = name
		if m, err := ParseMetric(name); err == nil {
			labels[i] = m.Label()
		}
		widths[i] = max(8, len(labels[i]))
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("=", tableWidth) + "\n")
	fmt.Fprintf(&b, "%-*s | %-*s", systemWidth, "System", countWidth, "Count")
	for i, l := range labels {
		fmt.Fprintf(&b, " | %-*s", widths[i], l)
	}
	b.WriteString("\n" + strings.Repeat("-", tableWidth) + "\n")

	for _, row := range r.Rows {
		if !row.OK() {
			fmt.Fprintf(&b, "%-*s | %s\n", systemWidth, row.System, row.Status)
			continue
		}
		fmt.Fprintf(&b, "%-*s | %-*d", systemWidth, row.System, countWidth, row.Queries)
		for i, name := range r.Metrics {
			fmt.Fprintf(&b, " | %-*.4f", widths[i], row.Metrics[name])
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("=", tableWidth) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadReport reads a report written by Save.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.MissingFileError(path, err)
		}
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, apperrors.FormatError(path, 0, fmt.Sprintf("invalid report: %v", err))
	}
	return &r, nil
}

// OKRows returns the rows that carry scores.
func (r *Report) OKRows() []Row {
	var rows []Row
	for _, row := range r.Rows {
		if row.OK() {
			rows = append(rows, row)
		}
	}
	return rows
}
