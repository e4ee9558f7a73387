package codegen_test

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"blockpad/internal/block"
	"blockpad/internal/codegen"
	"blockpad/internal/workspace"
)

func newTestWorkspace(t *testing.T) (*workspace.Workspace, *workspace.Controller) {
	t.Helper()
	ws := workspace.New("test", block.NewStandardFactory())
	return ws, workspace.NewController(ws, nil)
}

// ─────────────────────────────────────────────────────────────
// Generator
// ─────────────────────────────────────────────────────────────

func TestGenerate_PrintWithShadow(t *testing.T) {
	ws, c := newTestWorkspace(t)
	p, err := c.AddBlock("print", block.Point{})
	if err != nil {
		t.Fatalf("add block: %v", err)
	}
	if err := c.SetFieldValue(p.Input("VALUE").ConnectedBlock(), "TEXT", "hello"); err != nil {
		t.Fatalf("set field: %v", err)
	}

	src, err := codegen.NewGenerator().Generate(ws)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if src != "print(\"hello\")\n" {
		t.Fatalf("unexpected source:\n%s", src)
	}
}

func TestGenerate_ChainAndNesting(t *testing.T) {
	ws, c := newTestWorkspace(t)

	set, _ := c.AddBlock("set_variable", block.Point{X: 0, Y: 0})
	c.SetFieldValue(set, "VAR", "n")
	c.SetFieldValue(set.Input("VALUE").ConnectedBlock(), "NUM", "3")

	rep, _ := c.AddBlock("repeat", block.Point{X: 0, Y: 400})
	c.SetFieldValue(rep.Input("TIMES").ConnectedBlock(), "NUM", "2")
	body, _ := c.AddBlock("print", block.Point{X: 800, Y: 800})
	c.Connect(body.PreviousConnection(), rep.Input("DO").Connection())

	c.Connect(rep.PreviousConnection(), set.NextConnection())

	src, err := codegen.NewGenerator().Generate(ws)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := "n = 3\nfor _ = 1, 2 do\n  print(\"\")\nend\n"
	if src != want {
		t.Fatalf("unexpected source:\n%s\nwant:\n%s", src, want)
	}
}

func TestGenerate_IfCompareAndStop(t *testing.T) {
	ws, c := newTestWorkspace(t)

	ifb, _ := c.AddBlock("if", block.Point{})
	cmp, _ := c.AddBlock("compare", block.Point{X: 900, Y: 900})
	c.SetFieldValue(cmp, "OP", "!=")
	c.SetFieldValue(cmp.Input("A").ConnectedBlock(), "NUM", "1")
	c.SetFieldValue(cmp.Input("B").ConnectedBlock(), "NUM", "2")
	c.Connect(cmp.OutputConnection(), ifb.Input("COND").Connection())

	stop, _ := c.AddBlock("stop", block.Point{X: 900, Y: 1200})
	c.Connect(stop.PreviousConnection(), ifb.Input("THEN").Connection())

	src, err := codegen.NewGenerator().Generate(ws)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := "if (1 ~= 2) then\n  do return end\nend\n"
	if src != want {
		t.Fatalf("unexpected source:\n%s", src)
	}
}

func TestGenerate_WaitAddsSleepPrelude(t *testing.T) {
	ws, c := newTestWorkspace(t)
	w, _ := c.AddBlock("wait", block.Point{})
	c.SetFieldValue(w.Input("SECONDS").ConnectedBlock(), "NUM", "1")

	src, err := codegen.NewGenerator().Generate(ws)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(src, "local function sleep(s)") {
		t.Fatalf("expected sleep prelude, got:\n%s", src)
	}
	if !strings.Contains(src, "sleep(1)\n") {
		t.Fatalf("expected sleep call, got:\n%s", src)
	}
}

func TestGenerate_RootsInCanvasOrder(t *testing.T) {
	ws, c := newTestWorkspace(t)

	second, _ := c.AddBlock("print", block.Point{X: 0, Y: 300})
	c.SetFieldValue(second.Input("VALUE").ConnectedBlock(), "TEXT", "second")
	first, _ := c.AddBlock("print", block.Point{X: 0, Y: 0})
	c.SetFieldValue(first.Input("VALUE").ConnectedBlock(), "TEXT", "first")

	// A loose value block generates nothing.
	if _, err := c.AddBlock("number", block.Point{X: 600, Y: 0}); err != nil {
		t.Fatalf("add number: %v", err)
	}

	src, err := codegen.NewGenerator().Generate(ws)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := "print(\"first\")\n\nprint(\"second\")\n"
	if src != want {
		t.Fatalf("unexpected source:\n%s", src)
	}
}

func TestGenerate_EmptySlotReadsAsNil(t *testing.T) {
	ws, c := newTestWorkspace(t)
	ifb, _ := c.AddBlock("if", block.Point{})
	p, _ := c.AddBlock("print", block.Point{X: 600, Y: 600})
	c.Connect(p.PreviousConnection(), ifb.Input("THEN").Connection())

	src, err := codegen.NewGenerator().Generate(ws)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(src, "if nil then\n") {
		t.Fatalf("empty COND should read as nil:\n%s", src)
	}
}

// ─────────────────────────────────────────────────────────────
// Queue
// ─────────────────────────────────────────────────────────────

func TestQueue_GenerateNowWritesProgram(t *testing.T) {
	ws, c := newTestWorkspace(t)
	p, _ := c.AddBlock("print", block.Point{})
	c.SetFieldValue(p.Input("VALUE").ConnectedBlock(), "TEXT", "hi")

	dir := t.TempDir()
	q := codegen.NewQueue(func(id string) (*workspace.Workspace, error) {
		if id != "ws-1" {
			return nil, fmt.Errorf("unknown workspace %s", id)
		}
		return ws, nil
	}, dir, nil)

	res := q.GenerateNow("ws-1")
	if res.Status != "success" {
		t.Fatalf("unexpected result: %+v", res)
	}
	data, err := os.ReadFile(q.ProgramPath("ws-1"))
	if err != nil {
		t.Fatalf("read program: %v", err)
	}
	if string(data) != "print(\"hi\")\n" {
		t.Fatalf("unexpected program:\n%s", data)
	}

	bad := q.GenerateNow("nope")
	if bad.Status != "error" || bad.Error == "" {
		t.Fatalf("expected resolver failure, got %+v", bad)
	}
}
