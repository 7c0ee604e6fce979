package frontend

import (
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"sort"
	"strings"

	gopackages "golang.org/x/tools/go/packages"

	"hwgen/internal/compile"
	"hwgen/internal/diag"
)

// LoadConfig names the Go files holding code bodies and optional build tags.
type LoadConfig struct {
	Sources   []string
	BuildTags []string
}

// LoadPackages loads the packages containing the requested source files with
// syntax and type information.
func LoadPackages(cfg LoadConfig, reporter *diag.Reporter) ([]*gopackages.Package, *token.FileSet, error) {
	if len(cfg.Sources) == 0 {
		return nil, nil, fmt.Errorf("no source files were provided")
	}

	fset := token.NewFileSet()
	loadCfg := &gopackages.Config{
		Mode:  gopackages.NeedName | gopackages.NeedSyntax | gopackages.NeedFiles | gopackages.NeedCompiledGoFiles | gopackages.NeedTypes | gopackages.NeedTypesInfo | gopackages.NeedImports,
		Fset:  fset,
		Tests: false,
	}
	if dir := workingDir(cfg.Sources[0]); dir != "" {
		if absDir, err := filepath.Abs(dir); err == nil {
			dir = absDir
		}
		loadCfg.Dir = dir
	}
	if flags := buildTagFlag(cfg.BuildTags); len(flags) > 0 {
		loadCfg.BuildFlags = flags
	}

	pkgs, err := gopackages.Load(loadCfg, ".")
	if err != nil {
		return nil, nil, err
	}

	reporter.SetFileSet(fset)

	var hadErrors bool
	for _, pkg := range pkgs {
		for _, loadErr := range pkg.Errors {
			reporter.Errorf("%s: %s", loadErr.Pos, loadErr.Msg)
			hadErrors = true
		}
	}
	if hadErrors {
		return nil, nil, fmt.Errorf("package loading failed")
	}
	return pkgs, fset, nil
}

// Bodies indexes the top-level functions of the loaded source files.
type Bodies struct {
	funcs map[string]*compile.Func
}

// LoadBodies loads cfg.Sources and wraps every top-level function declared
// in them as a code body.
func LoadBodies(cfg LoadConfig, reporter *diag.Reporter) (*Bodies, error) {
	pkgs, fset, err := LoadPackages(cfg, reporter)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if abs, err := filepath.Abs(src); err == nil {
			src = abs
		}
		wanted[src] = true
	}

	bodies := &Bodies{funcs: make(map[string]*compile.Func)}
	for _, pkg := range pkgs {
		for i, file := range pkg.Syntax {
			if i < len(pkg.CompiledGoFiles) && !wanted[pkg.CompiledGoFiles[i]] {
				continue
			}
			for _, decl := range file.Decls {
				fd, ok := decl.(*ast.FuncDecl)
				if !ok || fd.Recv != nil || fd.Body == nil {
					continue
				}
				fn, err := compile.NewFunc(fset, fd, pkg.TypesInfo)
				if err != nil {
					reporter.Error(fd.Pos(), err.Error())
					continue
				}
				bodies.funcs[fn.Name] = fn
			}
		}
	}
	if reporter.HasErrors() {
		return nil, fmt.Errorf("loading code bodies failed")
	}
	return bodies, nil
}

// Lookup returns the body called name.
func (b *Bodies) Lookup(name string) (*compile.Func, bool) {
	fn, ok := b.funcs[name]
	return fn, ok
}

// Names returns the sorted body names.
func (b *Bodies) Names() []string {
	names := make([]string, 0, len(b.funcs))
	for name := range b.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildTagFlag(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	joined := strings.Join(tags, ",")
	if joined == "" {
		return nil
	}
	return []string{"-tags=" + joined}
}

func workingDir(sample string) string {
	if sample == "" {
		return ""
	}
	dir := filepath.Dir(sample)
	if dir == "." {
		return ""
	}
	return dir
}
