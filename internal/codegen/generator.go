package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"blockpad/internal/block"
	"blockpad/internal/workspace"
)

// ─────────────────────────────────────────────────────────────
// Generator — block graph → Lua source
// ─────────────────────────────────────────────────────────────

const sleepPrelude = `local function sleep(s)
  local t = os.clock() + s
  repeat until os.clock() >= t
end

`

// Generator turns a workspace's block graph into runnable Lua source.
// Statement chains are emitted top to bottom in canvas order; detached
// value blocks produce no code.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate emits the whole workspace as one Lua program.
func (g *Generator) Generate(ws *workspace.Workspace) (string, error) {
	roots := make([]*block.Block, 0, len(ws.RootBlocks()))
	for _, r := range ws.RootBlocks() {
		if r.PreviousConnection() != nil {
			roots = append(roots, r)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		pi, pj := roots[i].Position(), roots[j].Position()
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.X < pj.X
	})

	var body strings.Builder
	needsSleep := false
	for i, root := range roots {
		if i > 0 {
			body.WriteString("\n")
		}
		if err := g.emitChain(&body, root, 0, &needsSleep); err != nil {
			return "", err
		}
	}

	var out strings.Builder
	if needsSleep {
		out.WriteString(sleepPrelude)
	}
	out.WriteString(body.String())
	return out.String(), nil
}

// emitChain writes a statement block and everything after it.
func (g *Generator) emitChain(out *strings.Builder, b *block.Block, depth int, needsSleep *bool) error {
	for ; b != nil; b = b.NextBlock() {
		if err := g.emitStatement(out, b, depth, needsSleep); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitStatement(out *strings.Builder, b *block.Block, depth int, needsSleep *bool) error {
	indent := strings.Repeat("  ", depth)

	switch b.Type() {
	case "print":
		expr, err := g.emitValue(b.Input("VALUE").ConnectedBlock())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%sprint(%s)\n", indent, expr)

	case "set_variable":
		name := b.Field("VAR").Value()
		if name == "" {
			name = "item"
		}
		expr, err := g.emitValue(b.Input("VALUE").ConnectedBlock())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s%s = %s\n", indent, name, expr)

	case "wait":
		*needsSleep = true
		expr, err := g.emitValue(b.Input("SECONDS").ConnectedBlock())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%ssleep(%s)\n", indent, expr)

	case "repeat":
		times, err := g.emitValue(b.Input("TIMES").ConnectedBlock())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%sfor _ = 1, %s do\n", indent, times)
		if body := b.Input("DO").ConnectedBlock(); body != nil {
			if err := g.emitChain(out, body, depth+1, needsSleep); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "%send\n", indent)

	case "if":
		cond, err := g.emitValue(b.Input("COND").ConnectedBlock())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%sif %s then\n", indent, cond)
		if body := b.Input("THEN").ConnectedBlock(); body != nil {
			if err := g.emitChain(out, body, depth+1, needsSleep); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "%send\n", indent)

	case "stop":
		fmt.Fprintf(out, "%sdo return end\n", indent)

	default:
		return fmt.Errorf("no statement emitter for block type %q", b.Type())
	}
	return nil
}

// emitValue renders a value block as a Lua expression. An empty slot reads
// as nil so partial programs still generate.
func (g *Generator) emitValue(b *block.Block) (string, error) {
	if b == nil {
		return "nil", nil
	}

	switch b.Type() {
	case "text":
		return strconv.Quote(b.Field("TEXT").Value()), nil

	case "number":
		v := b.Field("NUM").Value()
		if v == "" {
			v = "0"
		}
		return v, nil

	case "variable":
		name := b.Field("VAR").Value()
		if name == "" {
			name = "item"
		}
		return name, nil

	case "compare":
		a, err := g.emitValue(b.Input("A").ConnectedBlock())
		if err != nil {
			return "", err
		}
		bb, err := g.emitValue(b.Input("B").ConnectedBlock())
		if err != nil {
			return "", err
		}
		op := b.Field("OP").Value()
		if op == "" {
			op = "=="
		}
		if op == "!=" {
			op = "~=" // Lua spelling
		}
		return fmt.Sprintf("(%s %s %s)", a, op, bb), nil

	default:
		return "", fmt.Errorf("no value emitter for block type %q", b.Type())
	}
}
