package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/scenario"
)

// Summary is everything a report renders for one run
type Summary struct {
	Title     string            `json:"title"`
	RunID     string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Aborted   string            `json:"aborted,omitempty"`
	Results   []scenario.Result `json:"results"`
}

// NewSummary tallies results. Duration runs from startedAt to now.
func NewSummary(title, runID string, startedAt time.Time, results []scenario.Result) Summary {
	s := Summary{
		Title:     title,
		RunID:     runID,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Total:     len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// OK reports whether the run completed with every scenario passing
func (s Summary) OK() bool {
	return s.Aborted == "" && s.Failed == 0
}

// Writer renders a summary in one format
type Writer interface {
	Format() string
	Extension() string
	Render(s Summary) ([]byte, error)
}

// WriterFor returns the writer for a configured format name
func WriterFor(format string) (Writer, error) {
	switch format {
	case "json":
		return jsonWriter{}, nil
	case "markdown":
		return markdownWriter{}, nil
	case "html":
		return htmlWriter{}, nil
	case "pdf":
		return pdfWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// WriteAll renders the summary in every format into dir as report.<ext> and
// returns the written paths. A failing format does not stop the others.
func WriteAll(dir string, formats []string, s Summary, logger arbor.ILogger) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var written []string
	var firstErr error
	for _, format := range formats {
		path, err := writeOne(dir, format, s)
		if err != nil {
			logger.Error().Err(err).Str("format", format).Msg("Failed to write report")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info().Str("format", format).Str("path", path).Msg("Report written")
		written = append(written, path)
	}
	return written, firstErr
}

func writeOne(dir, format string, s Summary) (string, error) {
	w, err := WriterFor(format)
	if err != nil {
		return "", err
	}
	content, err := w.Render(s)
	if err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", format, err)
	}
	path := filepath.Join(dir, "report."+w.Extension())
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func resultLabel(r scenario.Result) string {
	if r.Passed {
		return "PASS"
	}
	return "FAIL"
}

func formatElapsed(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}

func trimmed(b *bytes.Buffer) []byte {
	return bytes.TrimRight(b.Bytes(), "\n")
}
