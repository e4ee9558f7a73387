package workspace_test

import (
	"testing"

	"blockpad/internal/workspace"
)

// ─────────────────────────────────────────────────────────────
// Drag sessions
// ─────────────────────────────────────────────────────────────

func TestDrag_ConnectsOnRelease(t *testing.T) {
	c, ws := newTestController(t)
	x := addBlock(t, c, "print", 0, 0)
	y := addBlock(t, c, "print", 500, 500)

	rec := &recorder{}
	c.AddCallback(rec, workspace.EventAll)

	if err := c.StartDrag(y); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	// Land y's previous notch a few units from x's next notch.
	target := x.NextConnection().Position()
	if err := c.DragMove(target.X-500, target.Y-500+5); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	local, cand := c.DragCandidate()
	if local != y.PreviousConnection() || cand != x.NextConnection() {
		t.Fatal("expected snap candidate y.previous -> x.next")
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}

	if x.NextBlock() != y {
		t.Fatal("release should have connected y after x")
	}
	if ws.IsRootBlock(y) {
		t.Fatal("y should no longer be a root")
	}
	if len(rec.batches) != 1 {
		t.Fatalf("a completed drag fires one batch, got %d", len(rec.batches))
	}
}

func TestDrag_CannotMatchItself(t *testing.T) {
	c, _ := newTestController(t)
	b := addBlock(t, c, "print", 0, 0)

	if err := c.StartDrag(b); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	if err := c.DragMove(1, 1); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if _, cand := c.DragCandidate(); cand != nil {
		t.Fatal("a lone dragged block must never find a candidate in itself")
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}
}

func TestDrag_DropInEmptySpaceMovesRoot(t *testing.T) {
	c, ws := newTestController(t)
	b := addBlock(t, c, "print", 0, 0)

	rec := &recorder{}
	c.AddCallback(rec, workspace.EventMove)

	if err := c.StartDrag(b); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	if err := c.DragMove(300, 120); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}

	if got := b.Position(); got.X != 300 || got.Y != 120 {
		t.Fatalf("unexpected position after drop: %+v", got)
	}
	if !ws.IsRootBlock(b) {
		t.Fatal("b should still be a root")
	}
	if len(rec.batches) != 1 {
		t.Fatalf("expected one move batch, got %d", len(rec.batches))
	}
}

func TestDrag_DetachTakesDownstreamChain(t *testing.T) {
	c, ws := newTestController(t)
	x := addBlock(t, c, "print", 0, 0)
	y := addBlock(t, c, "print", 500, 0)
	z := addBlock(t, c, "print", 1000, 0)
	c.Connect(y.PreviousConnection(), x.NextConnection())
	c.Connect(z.PreviousConnection(), y.NextConnection())

	if err := c.StartDrag(y); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	if err := c.DragMove(600, 600); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}

	if x.NextConnection().IsConnected() {
		t.Fatal("x should have lost its next block")
	}
	if !ws.IsRootBlock(y) || y.NextBlock() != z {
		t.Fatal("y should be a root with z still attached")
	}
}

func TestDrag_CancelRollsBackCompletely(t *testing.T) {
	c, _ := newTestController(t)
	x := addBlock(t, c, "print", 0, 0)
	y := addBlock(t, c, "print", 500, 0)
	c.Connect(y.PreviousConnection(), x.NextConnection())
	start := y.Position()

	rec := &recorder{}
	c.AddCallback(rec, workspace.EventAll)

	if err := c.StartDrag(y); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	if err := c.DragMove(250, 250); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if err := c.CancelDrag(); err != nil {
		t.Fatalf("cancel drag: %v", err)
	}

	if x.NextBlock() != y {
		t.Fatal("cancel should restore the parent link")
	}
	if y.Position() != start {
		t.Fatal("cancel should restore the position")
	}
	if len(rec.batches) != 0 {
		t.Fatal("a cancelled drag emits no events")
	}
}

func TestDrag_OnlyOneSessionAtATime(t *testing.T) {
	c, _ := newTestController(t)
	a := addBlock(t, c, "print", 0, 0)
	b := addBlock(t, c, "print", 500, 0)

	if err := c.StartDrag(a); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	if err := c.StartDrag(b); err == nil {
		t.Fatal("second StartDrag should fail while a drag is active")
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}
	if err := c.DragMove(1, 1); err == nil {
		t.Fatal("DragMove without a session should fail")
	}
}

func TestDrag_StaysWithinSnapRadius(t *testing.T) {
	c, ws := newTestController(t)
	x := addBlock(t, c, "print", 0, 0)
	y := addBlock(t, c, "print", 500, 500)

	if err := c.StartDrag(y); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	// Park y's previous notch just outside the snap radius.
	target := x.NextConnection().Position()
	off := ws.SnapRadius() + 1
	if err := c.DragMove(target.X-500, target.Y-500+off); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if _, cand := c.DragCandidate(); cand != nil {
		t.Fatal("no candidate expected outside the snap radius")
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}
	if x.NextConnection().IsConnected() {
		t.Fatal("drop outside the radius must not connect")
	}
}

// Dropping a block onto a mid-stack previous notch must not offer that notch
// as a candidate: it already has a parent, and committing it would tear the
// stack. The drop lands in place as a root instead.
func TestDrag_MidStackTargetYieldsNoCandidate(t *testing.T) {
	c, ws := newTestController(t)
	x := addBlock(t, c, "print", 0, 0)
	y := addBlock(t, c, "print", 500, 0)
	c.Connect(y.PreviousConnection(), x.NextConnection())
	z := addBlock(t, c, "print", 500, 500)

	if err := c.StartDrag(z); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	// Land z's next notch a few units from y's occupied previous notch.
	target := y.PreviousConnection().Position()
	zNext := z.NextConnection().Position()
	if err := c.DragMove(target.X-zNext.X, target.Y-zNext.Y+5); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if _, cand := c.DragCandidate(); cand != nil {
		t.Fatalf("no candidate expected over a linked previous notch, got %s", cand.Kind())
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}

	if x.NextBlock() != y {
		t.Fatal("the existing stack must survive the drop")
	}
	if !ws.IsRootBlock(z) || z.NextConnection().IsConnected() {
		t.Fatal("z should land as an unattached root")
	}
}

// Dragging a middle block then releasing it in place near its old parent
// reconnects it — the candidate scan treats the vacated notch like any other.
func TestDrag_ReconnectNearOldParent(t *testing.T) {
	c, _ := newTestController(t)
	x := addBlock(t, c, "print", 0, 0)
	y := addBlock(t, c, "print", 500, 0)
	c.Connect(y.PreviousConnection(), x.NextConnection())

	if err := c.StartDrag(y); err != nil {
		t.Fatalf("start drag: %v", err)
	}
	if err := c.DragMove(3, 4); err != nil {
		t.Fatalf("drag move: %v", err)
	}
	if err := c.EndDrag(); err != nil {
		t.Fatalf("end drag: %v", err)
	}
	if x.NextBlock() != y {
		t.Fatal("y should have snapped back onto x")
	}
}
