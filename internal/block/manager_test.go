package block_test

import (
	"math/rand"
	"testing"

	"blockpad/internal/block"
)

// ─────────────────────────────────────────────────────────────
// Connection manager spatial queries
// ─────────────────────────────────────────────────────────────

func TestManager_NeighborsWithin_MatchesBruteForce(t *testing.T) {
	f := block.NewStandardFactory()
	m := block.NewManager()
	rng := rand.New(rand.NewSource(7))

	const n = 60
	const radius = 120.0

	// Statement blocks contribute open value slots (input kind), value
	// blocks contribute outputs.
	var slots []*block.Connection
	values := make([]*block.Block, 0, n)
	for i := 0; i < n; i++ {
		p := obtain(t, f, "if") // COND slot has no shadow, stays open
		p.MoveTo(block.Point{X: rng.Float64() * 1000, Y: rng.Float64() * 1000})
		m.AddSubtree(p)
		slots = append(slots, p.Input("COND").Connection())

		v := obtain(t, f, "text")
		v.MoveTo(block.Point{X: rng.Float64() * 1000, Y: rng.Float64() * 1000})
		m.AddSubtree(v)
		values = append(values, v)
	}

	for _, v := range values[:10] {
		out := v.OutputConnection()
		got := m.NeighborsWithin(out, radius)

		// Brute force over every open slot.
		var want []*block.Connection
		for _, slot := range slots {
			if out.DistanceFrom(slot) <= radius && out.CanConnect(slot) {
				want = append(want, slot)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("got %d neighbors, brute force found %d", len(got), len(want))
		}
		for i := 1; i < len(got); i++ {
			if out.DistanceFrom(got[i-1]) > out.DistanceFrom(got[i]) {
				t.Fatal("neighbors not sorted by ascending distance")
			}
		}
		seen := map[*block.Connection]bool{}
		for _, g := range got {
			seen[g] = true
		}
		for _, w := range want {
			if !seen[w] {
				t.Fatal("brute-force neighbor missing from query result")
			}
		}
	}
}

func TestManager_ExcludesSameRoot(t *testing.T) {
	f := block.NewStandardFactory()
	m := block.NewManager()

	parent := obtain(t, f, "if")
	parent.MoveTo(block.Point{X: 0, Y: 0})
	child := obtain(t, f, "text")
	parent.Input("COND").Connection().Connect(child.OutputConnection())
	child.MoveTo(parent.Input("COND").Connection().Position())
	m.AddSubtree(parent)

	// The child's output sits exactly on the parent's slot, but they share
	// a root and must never be offered as neighbors.
	got := m.NeighborsWithin(child.OutputConnection(), 50)
	for _, g := range got {
		if g.Owner().RootBlock() == parent {
			t.Fatal("neighbor query returned a connection on the same root")
		}
	}
}

func TestManager_RemoveSubtreeExcludesDraggedBlock(t *testing.T) {
	f := block.NewStandardFactory()
	m := block.NewManager()

	a := obtain(t, f, "if")
	a.MoveTo(block.Point{X: 0, Y: 0})
	b := obtain(t, f, "text")
	b.MoveTo(block.Point{X: 185, Y: 20})
	m.AddSubtree(a)
	m.AddSubtree(b)

	if m.ClosestWithin(b.OutputConnection(), 200) == nil {
		t.Fatal("expected a neighbor before drag removal")
	}

	m.RemoveSubtree(a)
	if got := m.ClosestWithin(b.OutputConnection(), 200); got != nil {
		t.Fatalf("dragged block's connections still indexed: %v", got.Kind())
	}

	m.AddSubtree(a)
	if m.ClosestWithin(b.OutputConnection(), 200) == nil {
		t.Fatal("expected neighbor back after re-adding subtree")
	}
}

func TestManager_MoveKeepsQueriesFresh(t *testing.T) {
	f := block.NewStandardFactory()
	m := block.NewManager()

	a := obtain(t, f, "if")
	a.MoveTo(block.Point{X: 0, Y: 0})
	b := obtain(t, f, "text")
	b.MoveTo(block.Point{X: 2000, Y: 2000})
	m.AddSubtree(a)
	m.AddSubtree(b)

	if m.ClosestWithin(b.OutputConnection(), 100) != nil {
		t.Fatal("blocks far apart should have no neighbors")
	}

	slot := a.Input("COND").Connection()
	b.MoveTo(block.Point{X: slot.Position().X - 10, Y: slot.Position().Y})
	m.MoveSubtree(b)

	got := m.ClosestWithin(b.OutputConnection(), 100)
	if got != slot {
		t.Fatal("after move + re-index, the open slot should be the closest neighbor")
	}
}

func TestManager_AddRemoveContains(t *testing.T) {
	f := block.NewStandardFactory()
	m := block.NewManager()

	b := obtain(t, f, "print")
	m.AddSubtree(b)
	for _, conn := range b.AllConnections() {
		if !m.Contains(conn) {
			t.Fatalf("connection %s not indexed after AddSubtree", conn.Kind())
		}
	}

	m.RemoveSubtree(b)
	if m.Size() != 0 {
		t.Fatalf("expected empty index, got %d connections", m.Size())
	}
}
