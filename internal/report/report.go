// Package report renders verification results as Markdown and HTML.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"go.uber.org/zap"

	"github.com/neboloop/pageverify/internal/annotate"
	"github.com/neboloop/pageverify/internal/logging"
	mdhtml "github.com/neboloop/pageverify/internal/markdown"
	"github.com/neboloop/pageverify/internal/verify"
)

// maxErrorChars bounds error text in the checks table.
const maxErrorChars = 80

// MarkdownWriter outputs a run report in Markdown format.
type MarkdownWriter struct {
	output    io.Writer
	annotated string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// WithAnnotatedScreenshot embeds the annotated screenshot at href.
func (w *MarkdownWriter) WithAnnotatedScreenshot(href string) *MarkdownWriter {
	w.annotated = href
	return w
}

// Write outputs the report for res.
func (w *MarkdownWriter) Write(res *verify.Result) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, res)
	w.writeChecks(md, res)
	w.writeScreenshot(md)
	w.writeFailure(md, res)
	w.writeFooter(md)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, res *verify.Result) {
	md.H1("Verification Report")
	md.PlainText("")

	rows := [][]string{
		{"Run", "`" + res.ID + "`"},
		{"Plan", res.Plan},
		{"Input", "`" + res.Input + "`"},
		{"Driver", res.Driver},
		{"Started", res.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", res.Duration().Round(time.Millisecond).String()},
		{"Status", statusText(res.Status)},
	}
	if res.Screenshot != "" {
		rows = append(rows, []string{"Screenshot", fmt.Sprintf("`%s` (%d bytes)", res.Screenshot, res.ScreenshotBytes)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	passed, failed, skipped := res.Counts()
	switch res.Status {
	case verify.StatusPassed:
		md.Tip(fmt.Sprintf("All %d checks passed.", passed))
	case verify.StatusFailed:
		md.Cautionf("%d passed, %d failed, %d skipped.", passed, failed, skipped)
	default:
		md.Warningf("Run did not complete: %s", res.Error)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeChecks(md *markdown.Markdown, res *verify.Result) {
	md.H2("Checks")
	md.PlainText("")

	rows := make([][]string, len(res.Checks))
	for i, c := range res.Checks {
		duration := "-"
		if c.Status != verify.CheckSkipped {
			duration = c.Duration.Round(time.Millisecond).String()
		}
		errText := c.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			escapeCell(c.Check.Locator.String()),
			c.Timeout.String(),
			checkStatusText(c.Status),
			duration,
			escapeCell(truncateString(errText, maxErrorChars)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Locator", "Timeout", "Status", "Duration", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeScreenshot(md *markdown.Markdown) {
	if w.annotated == "" {
		return
	}

	md.H2("Screenshot")
	md.PlainText("")
	md.PlainText(markdown.Image("Annotated screenshot", w.annotated))
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailure(md *markdown.Markdown, res *verify.Result) {
	if res.Status == verify.StatusPassed {
		return
	}

	md.H2("Failure")
	md.PlainText("")
	if res.Error != "" {
		md.CodeBlocks(markdown.SyntaxHighlight("text"), res.Error)
		md.PlainText("")
	}

	if len(res.Console) > 0 {
		md.H3("Console errors")
		md.PlainText("")
		items := make([]string, len(res.Console))
		for i, m := range res.Console {
			items[i] = "`" + m.Type + "` " + m.Text
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if res.Snapshot != "" {
		md.H3("Page snapshot")
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlight("yaml"), res.Snapshot)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by pageverify*")
}

// Markdown renders the report for res.
func Markdown(res *verify.Result) (string, error) {
	var sb strings.Builder
	if err := NewMarkdownWriter(&sb).Write(res); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteFile writes the Markdown report to path, and an HTML rendering next to
// it (same name, .html extension) when html is set. For a passed run with
// measured checks an annotated copy of the screenshot is written next to the
// report and embedded in it.
func WriteFile(path string, res *verify.Result, html bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	href, err := writeAnnotated(path, res)
	if err != nil {
		logging.Warn("failed to write annotated screenshot", zap.Error(err))
	}

	var sb strings.Builder
	if err := NewMarkdownWriter(&sb).WithAnnotatedScreenshot(href).Write(res); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	content := sb.String()

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if !html {
		return nil
	}

	page, err := mdhtml.Page("Verification "+res.ID, content)
	if err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	if err := os.WriteFile(HTMLPath(path), page, 0644); err != nil {
		return fmt.Errorf("write html report: %w", err)
	}
	return nil
}

// HTMLPath returns the HTML report path for a Markdown report path.
func HTMLPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
}

// AnnotatedPath returns the annotated screenshot path for a report path.
func AnnotatedPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".annotated.png"
}

// Marks labels each measured check with its row number in the checks table.
func Marks(res *verify.Result) []annotate.Mark {
	var marks []annotate.Mark
	for i, c := range res.Checks {
		if c.Box == nil || c.Box.Empty() {
			continue
		}
		marks = append(marks, annotate.Mark{Label: strconv.Itoa(i + 1), Box: *c.Box})
	}
	return marks
}

// writeAnnotated writes the annotated screenshot and returns its path
// relative to the report, or "" when there is nothing to annotate.
func writeAnnotated(path string, res *verify.Result) (string, error) {
	marks := Marks(res)
	if res.Screenshot == "" || len(marks) == 0 {
		return "", nil
	}

	data, err := os.ReadFile(res.Screenshot)
	if err != nil {
		return "", err
	}
	annotated, err := annotate.PNG(data, marks)
	if err != nil {
		return "", err
	}

	dest := AnnotatedPath(path)
	if err := os.WriteFile(dest, annotated, 0644); err != nil {
		return "", err
	}
	return filepath.Base(dest), nil
}

func statusText(s verify.Status) string {
	switch s {
	case verify.StatusPassed:
		return "✅ Passed"
	case verify.StatusFailed:
		return "❌ Failed"
	default:
		return "⚠️ Error"
	}
}

func checkStatusText(s verify.CheckStatus) string {
	switch s {
	case verify.CheckPassed:
		return "✅ passed"
	case verify.CheckFailed:
		return "❌ failed"
	default:
		return "⏭ skipped"
	}
}

// escapeCell keeps pipes and newlines from breaking a table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
