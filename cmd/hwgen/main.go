package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"hwgen/internal/config"
	"hwgen/internal/design"
	"hwgen/internal/diag"
	"hwgen/internal/gen"
	"hwgen/internal/ir"
	"hwgen/internal/passes"
)

var log = commonlog.GetLogger("hwgen.cmd")

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		failColor.Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printGlobalUsage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:])
	case "check":
		return runCheck(args[1:])
	case "import":
		return runImport(args[1:])
	default:
		printGlobalUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printGlobalUsage() {
	fmt.Fprintf(os.Stderr, "hwgen hardware generator\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  hwgen <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  build      Elaborate a design description and emit its IR or hierarchy\n")
	fmt.Fprintf(os.Stderr, "  check      Elaborate a design description and run the structural checks\n")
	fmt.Fprintf(os.Stderr, "  import     Import a Verilog module header as an external generator\n")
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	emit := fs.String("emit", "ir", "output format (ir|tree)")
	output := fs.String("o", "", "output file path (stdout when omitted)")
	diagFormat := fs.String("diag-format", "text", "diagnostic output format (text|json)")
	verbosity := fs.Int("v", 0, "log verbosity (-4 silent, 2 debug)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("build requires exactly one design description")
	}
	configureLogging(*verbosity)

	top, reporter, err := prepareDesign(fs.Arg(0), *diagFormat)
	if err != nil {
		return err
	}
	if err := runDefaultPasses(top, reporter); err != nil {
		return err
	}

	switch *emit {
	case "ir":
		return emitIR(top, *output)
	case "tree":
		return emitTree(top, *output)
	default:
		return fmt.Errorf("unknown emit format: %s", *emit)
	}
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	diagFormat := fs.String("diag-format", "text", "diagnostic output format (text|json)")
	verbosity := fs.Int("v", 0, "log verbosity (-4 silent, 2 debug)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("check requires at least one design description")
	}
	configureLogging(*verbosity)

	for _, path := range fs.Args() {
		top, reporter, err := prepareDesign(path, *diagFormat)
		if err != nil {
			return err
		}
		if err := runDefaultPasses(top, reporter); err != nil {
			return err
		}
		generators, clones := countGenerators(top)
		okColor.Fprint(os.Stderr, "ok ")
		fmt.Fprintf(os.Stderr, "%s: %d generators, %d clones\n", path, generators, clones)
	}
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	top := fs.String("top", "", "module to import")
	output := fs.String("o", "", "output file path (stdout when omitted)")
	var libs, portTypes listFlag
	fs.Var(&libs, "lib", "additional Verilog file searched for the module (repeatable)")
	fs.Var(&portTypes, "port-type", "port kind override as name=kind (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *top == "" {
		fs.Usage()
		return fmt.Errorf("import requires -top and exactly one Verilog file")
	}

	kinds := make(map[string]ir.PortType, len(portTypes))
	for _, entry := range portTypes {
		name, text, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("port type %q is not of the form name=kind", entry)
		}
		kind, err := ir.ParsePortType(text)
		if err != nil {
			return err
		}
		kinds[name] = kind
	}

	g, err := gen.FromVerilog(gen.NewContext(), *top, fs.Arg(0), libs, kinds)
	if err != nil {
		return err
	}
	return emitIR(g, *output)
}

func configureLogging(verbosity int) {
	commonlog.Configure(verbosity, nil)
}

func prepareDesign(path, diagFormat string) (*gen.Generator, *diag.Reporter, error) {
	reporter := diag.NewReporter(os.Stderr, diagFormat)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	ctx := gen.Default()
	ctx.Reset()
	top, err := design.Load(ctx, cfg, reporter)
	if err != nil {
		return nil, nil, err
	}
	if reporter.HasErrors() {
		return nil, nil, fmt.Errorf("errors reported during elaboration")
	}
	log.Infof("elaborated %s from %s", top.Name(), path)
	return top, reporter, nil
}

func runDefaultPasses(top *gen.Generator, reporter *diag.Reporter) error {
	if err := passes.Default(reporter).Run(top.IR()); err != nil {
		return err
	}
	if reporter != nil && reporter.HasErrors() {
		return fmt.Errorf("analysis passes reported errors")
	}
	return nil
}

func emitIR(top *gen.Generator, outputPath string) error {
	return withOutputWriter(outputPath, func(w io.Writer) error {
		ir.Dump(top.IR(), w)
		return nil
	})
}

func emitTree(top *gen.Generator, outputPath string) error {
	return withOutputWriter(outputPath, func(w io.Writer) error {
		return pterm.DefaultTree.WithRoot(hierarchyTree(top)).WithWriter(w).Render()
	})
}

// hierarchyTree mirrors the instance hierarchy below g.
func hierarchyTree(g *gen.Generator) pterm.TreeNode {
	node := pterm.TreeNode{Text: describeInstance(g)}
	for _, c := range g.Children() {
		node.Children = append(node.Children, hierarchyTree(c))
	}
	return node
}

func describeInstance(g *gen.Generator) string {
	text := g.InstanceName()
	if text != g.Name() {
		text += " (" + g.Name() + ")"
	}
	switch {
	case g.IsCloned():
		text += " [clone]"
	case g.Definition() != g:
		text += " [replayed]"
	}
	if g.External() {
		text += " [external]"
	}
	if g.Stub() {
		text += " [stub]"
	}
	return text
}

func countGenerators(g *gen.Generator) (generators, clones int) {
	generators = 1
	if g.Definition() != g {
		clones = 1
	}
	for _, c := range g.Children() {
		n, k := countGenerators(c)
		generators += n
		clones += k
	}
	return generators, clones
}

type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func withOutputWriter(path string, fn func(io.Writer) error) error {
	w, cleanup, err := outputWriter(path)
	if err != nil {
		return err
	}
	if cleanup == nil {
		return fn(w)
	}
	err = fn(w)
	if closeErr := cleanup(); err == nil && closeErr != nil {
		err = closeErr
	}
	return err
}

func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
