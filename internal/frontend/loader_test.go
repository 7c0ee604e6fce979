package frontend

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hwgen/internal/diag"
)

const bodySource = `package bodies

//hw:always posedge clk
func shift(clk bool, d, q uint8) {
	q = d
}

func route(sel bool, a, b, out uint8) {
	if sel {
		out = a
	} else {
		out = b
	}
}
`

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module bodies\n\ngo 1.21\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadBodies(t *testing.T) {
	dir := writeModule(t, map[string]string{"bodies.go": bodySource})
	reporter := diag.NewReporter(io.Discard, "text")

	bodies, err := LoadBodies(LoadConfig{Sources: []string{filepath.Join(dir, "bodies.go")}}, reporter)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"route", "shift"}, bodies.Names()); diff != "" {
		t.Fatalf("body names mismatch (-want +got):\n%s", diff)
	}
	shift, ok := bodies.Lookup("shift")
	if !ok || !shift.Sequential() || shift.Edges[0].Signal != "clk" {
		t.Fatalf("shift should be a sequential body on clk")
	}
	route, _ := bodies.Lookup("route")
	if route.Sequential() {
		t.Fatalf("route should be combinational")
	}
}

func TestLoadBodiesReportsTypeErrors(t *testing.T) {
	dir := writeModule(t, map[string]string{"bad.go": "package bodies\n\nfunc broken(a uint8) {\n\ta = missing\n}\n"})
	reporter := diag.NewReporter(io.Discard, "text")
	if _, err := LoadBodies(LoadConfig{Sources: []string{filepath.Join(dir, "bad.go")}}, reporter); err == nil {
		t.Fatalf("expected type errors to fail loading")
	}
	if !reporter.HasErrors() {
		t.Fatalf("type errors should be reported")
	}
}
