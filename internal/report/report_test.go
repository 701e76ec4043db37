package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/scenario"
)

func sampleSummary() Summary {
	started := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	s := NewSummary("EMS UI Tests", "run-1", started, []scenario.Result{
		{Name: "homepage_loads", Passed: true, Elapsed: 1200 * time.Millisecond},
		{
			Name:          "create_employee",
			FailureKind:   scenario.KindAssertionFailed,
			FailedStep:    "7: assert url equals",
			FailureReason: "url | mismatch <b>",
			Expected:      "http://app/",
			Actual:        "http://app/create",
			Elapsed:       4 * time.Second,
			Screenshot:    "results/screenshots/create_employee.png",
		},
	})
	s.Duration = 5 * time.Second
	return s
}

func TestNewSummary_Tallies(t *testing.T) {
	s := sampleSummary()
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.False(t, s.OK())

	empty := NewSummary("t", "r", time.Now(), nil)
	assert.True(t, empty.OK())

	empty.Aborted = "remote browser endpoint unavailable"
	assert.False(t, empty.OK())
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleSummary())

	assert.True(t, strings.HasPrefix(md, "# EMS UI Tests\n"))
	assert.Contains(t, md, "1 passed, 1 failed, 2 total")
	assert.Contains(t, md, "| 1 | homepage_loads | PASS | 1.2s |  |")
	assert.Contains(t, md, `url \| mismatch`, "pipes are escaped inside table cells")
	assert.Contains(t, md, "## Failures")
	assert.Contains(t, md, "- **Expected:** `http://app/`")
	assert.Contains(t, md, "- **Screenshot:** results/screenshots/create_employee.png")
}

func TestHTML_RendersTableAndEscapesReasons(t *testing.T) {
	out, err := htmlWriter{}.Render(sampleSummary())
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "EMS UI Tests", doc.Find("title").Text())
	assert.Equal(t, "FAILED", doc.Find("p.status").Text())
	assert.Equal(t, 2, doc.Find("table tbody tr").Length())
	assert.Equal(t, 0, doc.Find("td b").Length(), "failure text must not become markup")
}

func TestMarkdown_BacktickContentKeepsCodeBlocksIntact(t *testing.T) {
	s := sampleSummary()
	reason := "script error:\n```\nReferenceError: x is not defined\n```\nafter `click`"
	s.Results[1].FailureReason = reason
	s.Results[1].Expected = "`id`"
	s.Results[1].Actual = "a``b"

	md := Markdown(s)
	assert.Contains(t, md, "````\n"+reason+"\n````")
	assert.Contains(t, md, "- **Expected:** `` `id` ``")
	assert.Contains(t, md, "- **Actual:** ```a``b```")

	out, err := htmlWriter{}.Render(s)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	require.NoError(t, err)

	blocks := doc.Find("pre code")
	require.Equal(t, 1, blocks.Length())
	assert.Equal(t, reason+"\n", blocks.Text())
	assert.Equal(t, 1, doc.Find("h3").Length(), "nothing after the code block is swallowed")

	var spans []string
	doc.Find("li code").Each(func(_ int, sel *goquery.Selection) {
		spans = append(spans, sel.Text())
	})
	assert.Contains(t, spans, "`id`")
	assert.Contains(t, spans, "a``b")
}

func TestPDF_ProducesDocument(t *testing.T) {
	s := sampleSummary()
	s.Results[1].FailureReason = strings.Repeat("a long failure reason ", 40)

	out, err := pdfWriter{}.Render(s)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestJSON_RoundTripsCounts(t *testing.T) {
	out, err := jsonWriter{}.Render(sampleSummary())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.EqualValues(t, 1, decoded["failed"])
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	paths, err := WriteAll(dir, []string{"json", "markdown", "html", "pdf"}, sampleSummary(), arbor.NewLogger())
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, name := range []string{"report.json", "report.md", "report.html", "report.pdf"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}

func TestWriteAll_UnknownFormatDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()

	paths, err := WriteAll(dir, []string{"xml", "json"}, sampleSummary(), arbor.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"xml"`)
	assert.Equal(t, []string{filepath.Join(dir, "report.json")}, paths)
}
