package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `
top = "top"
debug = true
bodies = ["bodies.go"]

[[external]]
name = "ram"
file = "ram.v"
[external.port_types]
clk = "clock"

[[generator]]
name = "adder"
[generator.defaults]
WIDTH = 8

[[generator.port]]
name = "a"
direction = "in"
width_param = "WIDTH"

[[generator.port]]
name = "out"
direction = "out"
width_param = "WIDTH"

[[generator]]
name = "top"

[[generator.port]]
name = "clk"
direction = "in"
type = "clock"
width = 1

[[generator.child]]
instance = "u0"
generator = "adder"
params = { WIDTH = 4 }
comment = "narrow"

[[generator.child]]
instance = "mem"
generator = "ram"

[[generator.wire]]
to = "u0.a"
from = "mem.rdata"

[[generator.reg]]
kind = "init"
name = "q"
source = "u0.out"
init = 3

[[generator.fsm]]
name = "ctrl"
states = ["idle", "run"]
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "design.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Top != "top" || !d.Debug || d.LazyClones {
		t.Fatalf("unexpected header %+v", d)
	}
	if got := d.Path(d.Bodies[0]); got != filepath.Join(dir, "bodies.go") {
		t.Fatalf("bodies path not resolved: %s", got)
	}

	ram, ok := d.External("ram")
	if !ok || ram.PortTypes["clk"] != "clock" {
		t.Fatalf("external not decoded: %+v", ram)
	}

	adder, ok := d.Generator("adder")
	if !ok {
		t.Fatalf("adder not found")
	}
	if adder.Defaults["WIDTH"] != int64(8) {
		t.Fatalf("defaults decode integers as int64, got %T", adder.Defaults["WIDTH"])
	}

	top, _ := d.Generator("top")
	want := []*Child{
		{Instance: "u0", Generator: "adder", Comment: "narrow", Params: map[string]interface{}{"WIDTH": int64(4)}},
		{Instance: "mem", Generator: "ram"},
	}
	if diff := cmp.Diff(want, top.Children); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if top.Regs[0].Kind != RegInit || top.Regs[0].Init != 3 {
		t.Fatalf("unexpected reg %+v", top.Regs[0])
	}
	if diff := cmp.Diff([]string{"idle", "run"}, top.FSMs[0].States); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing top", `[[generator]]
name = "a"`, "top is not set"},
		{"unknown top", `top = "b"
[[generator]]
name = "a"`, "top b is not declared"},
		{"duplicate", `top = "a"
[[generator]]
name = "a"
[[generator]]
name = "a"`, "declared more than once"},
		{"bad direction", `top = "a"
[[generator]]
name = "a"
[[generator.port]]
name = "p"
direction = "sideways"
width = 1`, "unknown port direction"},
		{"unknown child", `top = "a"
[[generator]]
name = "a"
[[generator.child]]
instance = "u0"
generator = "ghost"`, "unknown generator ghost"},
		{"bad reg", `top = "a"
[[generator]]
name = "a"
[[generator.reg]]
kind = "latch"
name = "r"`, "unknown kind"},
		{"missing default", `top = "a"
[[generator]]
name = "a"
[[generator.var]]
name = "v"
width_param = "W"`, "no default for W"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
