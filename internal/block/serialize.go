package block

import (
	"encoding/json"
	"fmt"
)

// SubtreeNode is the JSON form of one block and everything beneath it, the
// shape stored in snapshots, trash rows, undo nodes and event payloads.
type SubtreeNode struct {
	ID       string                  `json:"id"`
	Type     string                  `json:"type"`
	Shadow   bool                    `json:"shadow,omitempty"`
	Position Point                   `json:"position"`
	Fields   map[string]string       `json:"fields,omitempty"`
	Inputs   map[string]*SubtreeNode `json:"inputs,omitempty"`
	Next     *SubtreeNode            `json:"next,omitempty"`
}

// Subtree converts a block and its descendants to the serializable form.
func Subtree(b *Block) *SubtreeNode {
	node := &SubtreeNode{
		ID:       b.id,
		Type:     b.typ,
		Shadow:   b.shadow,
		Position: b.position,
	}
	for _, in := range b.inputs {
		for _, f := range in.fields {
			if f.Kind() == "label" {
				continue
			}
			if node.Fields == nil {
				node.Fields = map[string]string{}
			}
			node.Fields[f.Name()] = f.Value()
		}
		if child := in.ConnectedBlock(); child != nil {
			if node.Inputs == nil {
				node.Inputs = map[string]*SubtreeNode{}
			}
			node.Inputs[in.name] = Subtree(child)
		}
	}
	if next := b.NextBlock(); next != nil {
		node.Next = Subtree(next)
	}
	return node
}

// MarshalSubtree serializes a block and its descendants to JSON.
func MarshalSubtree(b *Block) ([]byte, error) {
	data, err := json.Marshal(Subtree(b))
	if err != nil {
		return nil, fmt.Errorf("marshal subtree %s: %w", b.id, err)
	}
	return data, nil
}

// UnmarshalSubtree rebuilds a block subtree from its JSON form using the
// factory's templates. Saved ids are preserved so undo restores and splice
// round-trips keep block identity.
func UnmarshalSubtree(f *Factory, data []byte) (*Block, error) {
	var node SubtreeNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("unmarshal subtree: %w", err)
	}
	return Restore(f, &node)
}

// Restore rebuilds a block subtree from its serializable form.
func Restore(f *Factory, node *SubtreeNode) (*Block, error) {
	var (
		b   *Block
		err error
	)
	if node.Shadow {
		b, err = f.ObtainShadow(node.Type)
	} else {
		b, err = f.Obtain(node.Type)
	}
	if err != nil {
		return nil, err
	}
	if node.ID != "" {
		b.id = node.ID
	}
	b.MoveTo(node.Position)

	for name, value := range node.Fields {
		fld := b.Field(name)
		if fld == nil {
			return nil, fmt.Errorf("restore %q: no field %q", node.Type, name)
		}
		if err := fld.SetValue(value); err != nil {
			return nil, fmt.Errorf("restore %q: %w", node.Type, err)
		}
	}

	for name, childNode := range node.Inputs {
		in := b.Input(name)
		if in == nil || in.conn == nil {
			return nil, fmt.Errorf("restore %q: no connectable input %q", node.Type, name)
		}
		// A saved real block displaces the template's shadow default.
		if in.conn.IsConnected() {
			in.conn.Disconnect()
		}
		child, err := Restore(f, childNode)
		if err != nil {
			return nil, err
		}
		childConn := child.output
		if in.kind == InputStatement {
			childConn = child.previous
		}
		if childConn == nil {
			return nil, fmt.Errorf("restore %q: block %q does not fit input %q", node.Type, childNode.Type, name)
		}
		in.conn.Connect(childConn)
		child.MoveTo(in.conn.Position())
	}

	if node.Next != nil {
		if b.next == nil {
			return nil, fmt.Errorf("restore %q: type has no next connection", node.Type)
		}
		next, err := Restore(f, node.Next)
		if err != nil {
			return nil, err
		}
		if next.previous == nil {
			return nil, fmt.Errorf("restore %q: next block %q has no previous connection", node.Type, node.Next.Type)
		}
		b.next.Connect(next.previous)
		next.MoveTo(b.next.Position())
	}

	return b, nil
}
