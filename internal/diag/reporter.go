package diag

import (
	"encoding/json"
	"fmt"
	"go/token"
	"io"

	"github.com/fatih/color"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single positioned message.
type Diagnostic struct {
	Severity Severity
	Pos      token.Pos
	Message  string
}

// Reporter collects diagnostics and writes them to w as they arrive, either as
// colored text or as one JSON object per line.
type Reporter struct {
	w        io.Writer
	format   string
	fset     *token.FileSet
	errors   int
	warnings int
	diags    []Diagnostic
}

// NewReporter creates a reporter. format is "text" or "json"; anything else
// falls back to text.
func NewReporter(w io.Writer, format string) *Reporter {
	if w == nil {
		w = io.Discard
	}
	if format != "json" {
		format = "text"
	}
	return &Reporter{w: w, format: format}
}

// SetFileSet installs the file set used to resolve positions.
func (r *Reporter) SetFileSet(fset *token.FileSet) {
	r.fset = fset
}

// Error reports an error at pos.
func (r *Reporter) Error(pos token.Pos, msg string) {
	r.report(SeverityError, pos, msg)
}

// Errorf reports an unpositioned error.
func (r *Reporter) Errorf(format string, args ...any) {
	r.report(SeverityError, token.NoPos, fmt.Sprintf(format, args...))
}

// Warning reports a warning at pos.
func (r *Reporter) Warning(pos token.Pos, msg string) {
	r.report(SeverityWarning, pos, msg)
}

// HasErrors reports whether any error was recorded.
func (r *Reporter) HasErrors() bool {
	return r.errors > 0
}

// ErrorCount returns the number of recorded errors.
func (r *Reporter) ErrorCount() int {
	return r.errors
}

// Diagnostics returns everything reported so far, in order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diags
}

func (r *Reporter) report(sev Severity, pos token.Pos, msg string) {
	if sev == SeverityError {
		r.errors++
	} else {
		r.warnings++
	}
	r.diags = append(r.diags, Diagnostic{Severity: sev, Pos: pos, Message: msg})

	location := r.position(pos)
	if r.format == "json" {
		payload := struct {
			Severity string `json:"severity"`
			Position string `json:"position,omitempty"`
			Message  string `json:"message"`
		}{sev.String(), location, msg}
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintln(r.w, string(data))
		return
	}

	label := color.New(color.FgRed, color.Bold).SprintFunc()
	if sev == SeverityWarning {
		label = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	if location != "" {
		fmt.Fprintf(r.w, "%s: %s: %s\n", location, label(sev.String()), msg)
		return
	}
	fmt.Fprintf(r.w, "%s: %s\n", label(sev.String()), msg)
}

func (r *Reporter) position(pos token.Pos) string {
	if !pos.IsValid() || r.fset == nil {
		return ""
	}
	return r.fset.Position(pos).String()
}
