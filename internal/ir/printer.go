package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a simple human-readable representation of g and its children.
func Dump(g *Generator, w io.Writer) {
	if g == nil {
		fmt.Fprintln(w, "<nil generator>")
		return
	}
	dumpGenerator(g, w, map[*Generator]bool{})
}

func dumpGenerator(g *Generator, w io.Writer, seen map[*Generator]bool) {
	if seen[g] {
		return
	}
	seen[g] = true

	header := fmt.Sprintf("generator %s", g.Name)
	switch {
	case g.IsCloned:
		header += " (clone)"
	case g.External:
		header += " (external)"
	case g.Stub:
		header += " (stub)"
	}
	fmt.Fprintln(w, header)
	dumpPorts(g, w)
	dumpVars(g, w)
	dumpParams(g, w)
	dumpStmts(g, w)
	dumpFSMs(g, w)
	dumpChildren(g, w)
	fmt.Fprintln(w)

	for _, child := range g.Children() {
		if child.IsCloned {
			continue
		}
		dumpGenerator(child, w, seen)
	}
}

func dumpPorts(g *Generator, w io.Writer) {
	ports := g.Ports()
	if len(ports) == 0 {
		return
	}
	fmt.Fprintln(w, "  ports:")
	for _, port := range ports {
		kind := ""
		if port.PortType != Data {
			kind = " " + port.PortType.String()
		}
		fmt.Fprintf(w, "    %s %s %d%s%s%s\n",
			portDirection(port.Direction),
			port.Name,
			port.Type.Width,
			signSuffix(port.Type.Signed),
			arraySuffix(port.Size),
			kind,
		)
	}
}

func dumpVars(g *Generator, w io.Writer) {
	vars := g.Vars()
	if len(vars) == 0 {
		return
	}
	fmt.Fprintln(w, "  vars:")
	for _, v := range vars {
		fmt.Fprintf(w, "    %-8s %d%s%s\n",
			v.Name,
			v.Type.Width,
			signSuffix(v.Type.Signed),
			arraySuffix(v.Size),
		)
	}
}

func dumpParams(g *Generator, w io.Writer) {
	params := g.Params()
	if len(params) == 0 {
		return
	}
	fmt.Fprintln(w, "  params:")
	for _, p := range params {
		fmt.Fprintf(w, "    %-8s %d%s = %d\n", p.Name, p.Type.Width, signSuffix(p.Type.Signed), p.Value)
	}
}

func dumpStmts(g *Generator, w io.Writer) {
	stmts := g.Stmts()
	if len(stmts) == 0 {
		return
	}
	labels := make(map[Stmt]string, len(g.namedBlocks))
	for label, s := range g.namedBlocks {
		labels[s] = label
	}
	fmt.Fprintln(w, "  stmts:")
	for _, s := range stmts {
		dumpStmt(s, w, 2, labels)
	}
}

func dumpStmt(s Stmt, w io.Writer, depth int, labels map[Stmt]string) {
	indent := strings.Repeat("  ", depth)
	switch st := s.(type) {
	case *AssignStmt:
		fmt.Fprintf(w, "%s%s %s %s\n", indent, st.Left, assignSymbol(st.Type), st.Right)
	case *Block:
		line := indent + st.Sensitivity.String()
		if len(st.Edges) > 0 {
			edges := make([]string, 0, len(st.Edges))
			for _, e := range st.Edges {
				edges = append(edges, fmt.Sprintf("%s %s", e.Type, e.Signal.Name))
			}
			line += " @(" + strings.Join(edges, ", ") + ")"
		}
		if label, ok := labels[s]; ok {
			line += " [" + label + "]"
		}
		if st.Comment != "" {
			line += " // " + st.Comment
		}
		fmt.Fprintln(w, line)
		for _, inner := range st.Stmts() {
			dumpStmt(inner, w, depth+1, labels)
		}
	case *IfStmt:
		fmt.Fprintf(w, "%sif %s\n", indent, st.Predicate)
		for _, inner := range st.Then.Stmts() {
			dumpStmt(inner, w, depth+1, labels)
		}
		if st.Else.Len() > 0 {
			fmt.Fprintf(w, "%selse\n", indent)
			for _, inner := range st.Else.Stmts() {
				dumpStmt(inner, w, depth+1, labels)
			}
		}
	case *SwitchStmt:
		fmt.Fprintf(w, "%sswitch %s\n", indent, st.Target)
		for _, c := range st.Cases {
			if c.Value == nil {
				fmt.Fprintf(w, "%s  default:\n", indent)
			} else {
				fmt.Fprintf(w, "%s  case %s:\n", indent, c.Value)
			}
			for _, inner := range c.Body.Stmts() {
				dumpStmt(inner, w, depth+2, labels)
			}
		}
	default:
		fmt.Fprintf(w, "%s<unknown stmt %T>\n", indent, s)
	}
}

func dumpFSMs(g *Generator, w io.Writer) {
	fsms := g.FSMs()
	if len(fsms) == 0 {
		return
	}
	fmt.Fprintln(w, "  fsms:")
	for _, f := range fsms {
		fmt.Fprintf(w, "    %s clk=%s rst=%s states=[%s]\n",
			f.Name, f.Clock.Name, f.Reset.Name, strings.Join(f.States(), " "))
	}
}

func dumpChildren(g *Generator, w io.Writer) {
	children := g.Children()
	if len(children) == 0 {
		return
	}
	fmt.Fprintln(w, "  children:")
	for _, child := range children {
		line := fmt.Sprintf("    %s: %s", child.InstanceName, child.Name)
		if child.IsCloned {
			line += " (clone)"
		}
		if comment := g.ChildComment(child.InstanceName); comment != "" {
			line += " // " + comment
		}
		fmt.Fprintln(w, line)
	}
}

func assignSymbol(t AssignType) string {
	if t == NonBlocking {
		return "<="
	}
	return "="
}

func portDirection(dir PortDirection) string {
	switch dir {
	case Input:
		return "in "
	case Output:
		return "out"
	case InOut:
		return "io "
	default:
		return "?"
	}
}

func arraySuffix(size int) string {
	if size > 1 {
		return fmt.Sprintf("[%d]", size)
	}
	return ""
}

func signSuffix(signed bool) string {
	if signed {
		return "s"
	}
	return "u"
}
