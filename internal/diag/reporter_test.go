package diag

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func TestReporterText(t *testing.T) {
	color.NoColor = true
	fset := token.NewFileSet()
	file := fset.AddFile("body.go", -1, 100)
	file.SetLines([]int{0, 20, 40})

	var buf bytes.Buffer
	r := NewReporter(&buf, "text")
	r.SetFileSet(fset)
	r.Error(file.Pos(25), "loops are not supported")
	r.Warning(token.NoPos, "unused")
	r.Errorf("%s is undriven", "q")

	want := "body.go:2:6: error: loops are not supported\n" +
		"warning: unused\n" +
		"error: q is undriven\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("text output mismatch (-want +got):\n%s", diff)
	}
	if r.ErrorCount() != 2 || !r.HasErrors() {
		t.Fatalf("expected two errors, got %d", r.ErrorCount())
	}
	if got := r.Diagnostics()[1].Severity; got != SeverityWarning {
		t.Fatalf("expected a warning, got %s", got)
	}
}

func TestReporterJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "json")
	r.Errorf("clone %s was never initialized", "u1")
	got := strings.TrimSpace(buf.String())
	want := `{"severity":"error","message":"clone u1 was never initialized"}`
	if got != want {
		t.Fatalf("unexpected json %s", got)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	err := fmt.Errorf("gen: build adder: %w", Preconditionf("width %d is not positive", 0))
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected a PreconditionError in %v", err)
	}
	if pre.Msg != "width 0 is not positive" {
		t.Fatalf("unexpected message %q", pre.Msg)
	}
}
