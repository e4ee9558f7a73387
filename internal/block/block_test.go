package block_test

import (
	"reflect"
	"testing"

	"blockpad/internal/block"
)

// ─────────────────────────────────────────────────────────────
// Block graph structure
// ─────────────────────────────────────────────────────────────

func TestFactory_ObtainBuildsShape(t *testing.T) {
	f := block.NewStandardFactory()
	b := obtain(t, f, "print")

	if b.PreviousConnection() == nil || b.NextConnection() == nil {
		t.Fatal("print should have previous and next notches")
	}
	if b.OutputConnection() != nil {
		t.Fatal("print should not have an output")
	}
	in := b.Input("VALUE")
	if in == nil || in.Kind() != block.InputValue {
		t.Fatal("print should have a VALUE input")
	}

	shadow := in.ConnectedBlock()
	if shadow == nil || !shadow.IsShadow() || shadow.Type() != "text" {
		t.Fatal("VALUE slot should hold a text shadow by default")
	}
	if in.Connection().Shadow() == nil {
		t.Fatal("slot should remember its serialized shadow")
	}
}

func TestFactory_UnknownType(t *testing.T) {
	f := block.NewStandardFactory()
	if _, err := f.Obtain("no_such_block"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestFactory_RejectsOutputWithNotches(t *testing.T) {
	f := block.NewFactory()
	err := f.Register(block.Template{Type: "bad", HasOutput: true, HasPrevious: true})
	if err == nil {
		t.Fatal("expected error registering a template that is both statement and value")
	}
}

func TestBlock_RootAndChainWalks(t *testing.T) {
	f := block.NewStandardFactory()
	a := obtain(t, f, "print")
	b := obtain(t, f, "print")
	c := obtain(t, f, "stop")

	a.NextConnection().Connect(b.PreviousConnection())
	b.NextConnection().Connect(c.PreviousConnection())

	if c.RootBlock() != a {
		t.Error("root of chain tail should be the head")
	}
	if a.LastChainBlock() != c {
		t.Error("last chain block should be the terminal")
	}
	if b.ParentBlock() != a || c.ParentBlock() != b {
		t.Error("parent walks broken")
	}

	// a, its shadow, b, b's shadow, c
	if got := len(a.Descendants()); got != 5 {
		t.Errorf("expected 5 descendants, got %d", got)
	}
}

func TestBlock_MoveByTranslatesSubtree(t *testing.T) {
	f := block.NewStandardFactory()
	a := obtain(t, f, "print")
	b := obtain(t, f, "print")
	a.NextConnection().Connect(b.PreviousConnection())
	b.MoveTo(a.NextConnection().Position())

	beforeB := b.Position()
	beforeSlot := b.Input("VALUE").Connection().Position()

	a.MoveBy(30, -12)

	if got := b.Position(); got.X != beforeB.X+30 || got.Y != beforeB.Y-12 {
		t.Errorf("next block did not travel with parent: %+v", got)
	}
	slot := b.Input("VALUE").Connection().Position()
	if slot.X != beforeSlot.X+30 || slot.Y != beforeSlot.Y-12 {
		t.Errorf("nested connection position stale after move: %+v", slot)
	}
}

func TestBlock_OpenValueSlot(t *testing.T) {
	f := block.NewStandardFactory()

	// "if" has one open value slot (COND has no shadow).
	ifb := obtain(t, f, "if")
	slot, count := ifb.OpenValueSlot()
	if count != 1 || slot != ifb.Input("COND").Connection() {
		t.Fatalf("expected the COND slot as the single open slot, count=%d", count)
	}

	// "compare" ships with both slots shadow-filled: nothing open.
	cmp := obtain(t, f, "compare")
	if _, count := cmp.OpenValueSlot(); count != 0 {
		t.Fatalf("expected no open slots on compare, got %d", count)
	}

	// Vacating both slots makes reattachment ambiguous.
	cmp.Input("A").Connection().Disconnect()
	cmp.Input("B").Connection().Disconnect()
	slot, count = cmp.OpenValueSlot()
	if count != 2 || slot != nil {
		t.Fatalf("expected ambiguous result (nil, 2), got (%v, %d)", slot, count)
	}
}

// ─────────────────────────────────────────────────────────────
// Serialization
// ─────────────────────────────────────────────────────────────

func TestSerialize_RoundTrip(t *testing.T) {
	f := block.NewStandardFactory()

	rep := obtain(t, f, "repeat")
	rep.MoveTo(block.Point{X: 10, Y: 20})
	body := obtain(t, f, "print")
	rep.Input("DO").Connection().Connect(body.PreviousConnection())
	body.MoveTo(rep.Input("DO").Connection().Position())
	tail := obtain(t, f, "stop")
	rep.NextConnection().Connect(tail.PreviousConnection())
	tail.MoveTo(rep.NextConnection().Position())

	if f2 := rep.Field("LABEL"); f2 == nil {
		t.Fatal("repeat should carry its label field")
	}

	data, err := block.MarshalSubtree(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := block.UnmarshalSubtree(f, data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.ID() != rep.ID() {
		t.Error("ids should survive the round trip")
	}
	if !reflect.DeepEqual(block.Subtree(restored), block.Subtree(rep)) {
		t.Error("round trip changed the subtree")
	}
}

func TestSerialize_FieldValues(t *testing.T) {
	f := block.NewStandardFactory()
	v := obtain(t, f, "number")
	if err := v.Field("NUM").SetValue("42"); err != nil {
		t.Fatalf("set value: %v", err)
	}

	data, err := block.MarshalSubtree(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := block.UnmarshalSubtree(f, data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := restored.Field("NUM").Value(); got != "42" {
		t.Errorf("expected field value 42, got %q", got)
	}
}
