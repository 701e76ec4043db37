package report

import (
	"bytes"
	"fmt"
	"strings"
)

type markdownWriter struct{}

func (markdownWriter) Format() string    { return "markdown" }
func (markdownWriter) Extension() string { return "md" }

func (markdownWriter) Render(s Summary) ([]byte, error) {
	return []byte(Markdown(s)), nil
}

// Markdown renders the summary as GitHub-flavoured markdown: a header block,
// one table row per scenario and a details section per failure
func Markdown(s Summary) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "- **Run:** `%s`\n", s.RunID)
	fmt.Fprintf(&b, "- **Started:** %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Duration:** %s\n", formatElapsed(s.Duration))
	fmt.Fprintf(&b, "- **Result:** %d passed, %d failed, %d total\n", s.Passed, s.Failed, s.Total)
	if s.Aborted != "" {
		fmt.Fprintf(&b, "- **Aborted:** %s\n", cell(s.Aborted))
	}
	b.WriteString("\n")

	b.WriteString("| # | Scenario | Result | Elapsed | Failure |\n")
	b.WriteString("|---|----------|--------|---------|---------|\n")
	for i, r := range s.Results {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1, cell(r.Name), resultLabel(r), formatElapsed(r.Elapsed), cell(r.FailureReason))
	}

	var failures bytes.Buffer
	for _, r := range s.Results {
		if r.Passed {
			continue
		}
		fmt.Fprintf(&failures, "\n### %s\n\n", r.Name)
		if r.FailureKind != "" {
			fmt.Fprintf(&failures, "- **Kind:** %s\n", r.FailureKind)
		}
		if r.FailedStep != "" {
			fmt.Fprintf(&failures, "- **Step:** %s\n", cell(r.FailedStep))
		}
		if r.Expected != "" || r.Actual != "" {
			fmt.Fprintf(&failures, "- **Expected:** %s\n", inlineCode(r.Expected))
			fmt.Fprintf(&failures, "- **Actual:** %s\n", inlineCode(r.Actual))
		}
		if r.Screenshot != "" {
			fmt.Fprintf(&failures, "- **Screenshot:** %s\n", r.Screenshot)
		}
		fence := strings.Repeat("`", max(3, longestBacktickRun(r.FailureReason)+1))
		fmt.Fprintf(&failures, "\n%s\n%s\n%s\n", fence, r.FailureReason, fence)
	}
	if failures.Len() > 0 {
		b.WriteString("\n## Failures\n")
		b.Write(failures.Bytes())
	}

	return string(trimmed(&b)) + "\n"
}

// cell keeps a value on one table line
func cell(v string) string {
	v = strings.ReplaceAll(v, "\r", "")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.ReplaceAll(v, "|", `\|`)
}

// inlineCode wraps v in a code span whose delimiter is longer than any
// backtick run inside it
func inlineCode(v string) string {
	v = strings.ReplaceAll(v, "\r", "")
	v = strings.ReplaceAll(v, "\n", " ")
	if v == "" {
		return "*(empty)*"
	}
	delim := strings.Repeat("`", longestBacktickRun(v)+1)
	if strings.HasPrefix(v, "`") || strings.HasSuffix(v, "`") {
		v = " " + v + " "
	}
	return delim + v + delim
}

func longestBacktickRun(v string) int {
	longest, run := 0, 0
	for _, c := range v {
		if c != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}
