package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gorewood/echopost/internal/compose"
	"github.com/gorewood/echopost/internal/notice"
)

// Printer writes command results either as JSON or as styled text.
type Printer struct {
	w      io.Writer
	errW   io.Writer
	json   bool
	isTTY  bool
	styles *Styles
}

// Styles holds lipgloss styles for human-readable output.
type Styles struct {
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Bold    lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Border  lipgloss.Color
}

func colorStyles() *Styles {
	return &Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Muted:   lipgloss.NewStyle().Faint(true),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Border:  lipgloss.Color("8"),
	}
}

func plainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Error: plain, Success: plain, Warning: plain, Info: plain,
		Bold: plain, Title: plain, Muted: plain, Key: plain,
		Border: lipgloss.Color(""),
	}
}

// NewPrinter creates a Printer. Colors are used only when isTTY is true.
func NewPrinter(writer io.Writer, jsonMode bool, isTTY bool) *Printer {
	styles := plainStyles()
	if isTTY {
		styles = colorStyles()
	}
	return &Printer{w: writer, errW: writer, json: jsonMode, isTTY: isTTY, styles: styles}
}

// WithStderr sets a separate writer for errors, warnings and notices in
// human mode. In JSON mode everything goes to the main writer.
func (p *Printer) WithStderr(w io.Writer) *Printer {
	p.errW = w
	return p
}

// IsJSON returns true if the printer is in JSON mode.
func (p *Printer) IsJSON() bool {
	return p.json
}

// IsTTY returns true if the printer output is a TTY.
func (p *Printer) IsTTY() bool {
	return p.isTTY
}

// Success outputs a result. In human mode only the "message" key is
// printed when present; otherwise each key is listed.
func (p *Printer) Success(data map[string]any) error {
	if p.json {
		return p.writeJSON(data)
	}
	if msg, ok := data["message"].(string); ok {
		mustWrite(fmt.Fprintln(p.w, p.styles.Success.Render(msg)))
		return nil
	}
	for key, val := range data {
		mustWrite(fmt.Fprintf(p.w, "%s: %v\n", p.styles.Bold.Render(key), val))
	}
	return nil
}

// Error outputs an error as {"error", "code"} in JSON mode, or a styled
// line on the error writer.
func (p *Printer) Error(err error) {
	exitErr := &ExitError{}
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: ExitUserError, Message: err.Error()}
	}

	if p.json {
		mustWrite(p.w.Write(ErrorJSON(exitErr.Message, exitErr.Code)))
		mustWrite(fmt.Fprintln(p.w))
		return
	}
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Error.Render("Error"), exitErr.Message))
}

// Warn outputs a warning.
func (p *Printer) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.json {
		_ = p.writeJSON(map[string]any{"warning": msg})
		return
	}
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Warning.Render("Warning"), msg))
}

// Notify prints a transient notice. It makes Printer a notice.Notifier.
func (p *Printer) Notify(n notice.Notice) {
	if p.json {
		_ = p.writeJSON(map[string]any{"notice": n.Message, "severity": n.Severity.String()})
		return
	}
	style := p.styles.Info
	switch n.Severity {
	case notice.Success:
		style = p.styles.Success
	case notice.Error:
		style = p.styles.Error
	}
	for _, line := range strings.Split(n.Message, "\n") {
		mustWrite(fmt.Fprintf(p.errW, "%s %s\n", style.Render("»"), line))
	}
}

// Counter renders "count/max", colored by the counter state.
func (p *Printer) Counter(count int, limits compose.Limits) string {
	text := fmt.Sprintf("%d/%d", count, limits.Max)
	switch limits.State(count) {
	case compose.CounterError:
		return p.styles.Error.Render(text)
	case compose.CounterWarning:
		return p.styles.Warning.Render(text)
	default:
		return p.styles.Muted.Render(text)
	}
}

// Step prints one progress line.
func (p *Printer) Step(at, message string) {
	mustWrite(fmt.Fprintf(p.w, "  %s  %s\n", p.styles.Muted.Render(at), message))
}

// Stderr writes to the error writer. No-op in JSON mode.
func (p *Printer) Stderr(format string, args ...any) {
	if p.json {
		return
	}
	mustWrite(fmt.Fprintf(p.errW, format, args...))
}

// Print formats and writes to the output without a newline.
func (p *Printer) Print(format string, args ...any) {
	mustWrite(fmt.Fprintf(p.w, format, args...))
}

// Println writes a line to the output.
func (p *Printer) Println(args ...any) {
	mustWrite(fmt.Fprintln(p.w, args...))
}

// WriteJSON encodes any value as indented JSON.
func (p *Printer) WriteJSON(data any) error {
	return p.writeJSON(data)
}

func (p *Printer) writeJSON(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorJSON returns {"error": message, "code": N}.
func ErrorJSON(message string, code int) []byte {
	result, _ := json.Marshal(map[string]any{"error": message, "code": code})
	return result
}

// mustWrite panics if a write to stdout, stderr or a buffer fails.
func mustWrite(_ int, err error) {
	if err != nil {
		panic(fmt.Sprintf("write failed: %v", err))
	}
}

// Table renders rows under bold headers. On a TTY the table gets a light
// border; otherwise columns are separated by two spaces.
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	if p.isTTY {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(p.styles.Border)).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return p.styles.Bold.Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
		mustWrite(fmt.Fprintln(p.w, t.Render()))
		return
	}

	widths := columnWidths(headers, rows)
	p.tableRow(headers, widths)
	for _, row := range rows {
		p.tableRow(row, widths)
	}
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	return widths
}

func (p *Printer) tableRow(cells []string, widths []int) {
	parts := make([]string, 0, len(widths))
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		parts = append(parts, cell+strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
	}
	mustWrite(fmt.Fprintln(p.w, strings.TrimRight(strings.Join(parts, "  "), " ")))
}

// Box renders content in a rounded border on a TTY, plain otherwise.
func (p *Printer) Box(title string, content string) {
	if !p.isTTY {
		if title != "" {
			mustWrite(fmt.Fprintln(p.w, title))
			mustWrite(fmt.Fprintln(p.w))
		}
		mustWrite(fmt.Fprintln(p.w, content))
		return
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.styles.Border).
		Padding(0, 1)
	if title != "" {
		content = p.styles.Title.Render(title) + "\n\n" + content
	}
	mustWrite(fmt.Fprintln(p.w, style.Render(content)))
}

// Section renders an underlined header preceded by a blank line.
func (p *Printer) Section(title string) {
	mustWrite(fmt.Fprintln(p.w))
	mustWrite(fmt.Fprintln(p.w, p.styles.Title.Render(title)))
	mustWrite(fmt.Fprintln(p.w, p.styles.Muted.Render(strings.Repeat("─", lipgloss.Width(title)))))
}

// KeyValue renders "key: value".
func (p *Printer) KeyValue(key string, value string) {
	mustWrite(fmt.Fprintf(p.w, "%s %s\n", p.styles.Key.Render(key+":"), value))
}
