package block

import (
	"fmt"

	"github.com/google/uuid"
)

// FieldTemplate describes one field of a block template.
type FieldTemplate struct {
	Kind    string   `json:"kind"` // label, text, number, dropdown, checkbox
	Name    string   `json:"name"`
	Text    string   `json:"text,omitempty"`
	Number  float64  `json:"number,omitempty"`
	Options []string `json:"options,omitempty"`
	Checked bool     `json:"checked,omitempty"`
}

// InputTemplate describes one input row of a block template. Shadow names a
// registered template instantiated as the slot's default block.
type InputTemplate struct {
	Kind   InputKind       `json:"kind"`
	Name   string          `json:"name"`
	Align  Alignment       `json:"align,omitempty"`
	Fields []FieldTemplate `json:"fields,omitempty"`
	Shadow string          `json:"shadow,omitempty"`
}

// Template describes a block type: which block-level connections it carries
// and its input rows. A template has either previous/next notches or an
// output plug, never both.
type Template struct {
	Type        string          `json:"type"`
	HasPrevious bool            `json:"hasPrevious"`
	HasNext     bool            `json:"hasNext"`
	HasOutput   bool            `json:"hasOutput"`
	Inputs      []InputTemplate `json:"inputs,omitempty"`
}

// Factory builds blocks from registered templates, in the style of the
// per-type plugin registry: each block type registers once and is obtained
// by name.
type Factory struct {
	templates map[string]Template
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{templates: make(map[string]Template)}
}

// Register adds or replaces a template.
func (f *Factory) Register(t Template) error {
	if t.Type == "" {
		return fmt.Errorf("register template: empty type")
	}
	if t.HasOutput && (t.HasPrevious || t.HasNext) {
		return fmt.Errorf("register template %q: a block is a statement or a value, not both", t.Type)
	}
	f.templates[t.Type] = t
	return nil
}

// Template returns the registered template for a type.
func (f *Factory) Template(typ string) (Template, bool) {
	t, ok := f.templates[typ]
	return t, ok
}

// Types returns all registered type names.
func (f *Factory) Types() []string {
	types := make([]string, 0, len(f.templates))
	for typ := range f.templates {
		types = append(types, typ)
	}
	return types
}

// Obtain builds a new block of the given type, including shadow defaults in
// its value slots.
func (f *Factory) Obtain(typ string) (*Block, error) {
	return f.obtain(typ, false)
}

// ObtainShadow builds a new shadow (placeholder) block of the given type.
// Shadow blocks carry no nested shadows of their own.
func (f *Factory) ObtainShadow(typ string) (*Block, error) {
	return f.obtain(typ, true)
}

func (f *Factory) obtain(typ string, shadow bool) (*Block, error) {
	t, ok := f.templates[typ]
	if !ok {
		return nil, fmt.Errorf("obtain block: unknown type %q", typ)
	}

	b := &Block{
		id:        uuid.New().String(),
		typ:       typ,
		shadow:    shadow,
		deletable: !shadow,
	}
	if t.HasPrevious {
		b.previous = newConnection(KindPrevious, b)
	}
	if t.HasNext {
		b.next = newConnection(KindNext, b)
	}
	if t.HasOutput {
		b.output = newConnection(KindOutput, b)
	}

	for _, it := range t.Inputs {
		in := &Input{name: it.Name, kind: it.Kind, align: it.Align, owner: b}
		if in.align == "" {
			in.align = AlignLeft
		}
		for _, ft := range it.Fields {
			fld, err := buildField(ft)
			if err != nil {
				return nil, fmt.Errorf("obtain block %q: %w", typ, err)
			}
			in.fields = append(in.fields, fld)
		}
		switch it.Kind {
		case InputValue:
			in.conn = newConnection(KindInput, b)
			in.conn.input = in
		case InputStatement:
			in.conn = newConnection(KindNext, b)
			in.conn.input = in
		}
		b.inputs = append(b.inputs, in)
	}
	b.updateLayout()

	// Fill value slots with their shadow defaults. The serialized form is
	// kept on the connection so the shadow can be re-created after a real
	// block displaces it and later vacates the slot.
	if !shadow {
		for i, it := range t.Inputs {
			if it.Shadow == "" || it.Kind != InputValue {
				continue
			}
			sb, err := f.obtain(it.Shadow, true)
			if err != nil {
				return nil, fmt.Errorf("obtain block %q: shadow for input %q: %w", typ, it.Name, err)
			}
			conn := b.inputs[i].conn
			conn.Connect(sb.output)
			sb.MoveTo(conn.Position())
			data, err := MarshalSubtree(sb)
			if err != nil {
				return nil, fmt.Errorf("obtain block %q: serialize shadow: %w", typ, err)
			}
			conn.SetShadow(data)
		}
	}

	return b, nil
}

func buildField(ft FieldTemplate) (Field, error) {
	switch ft.Kind {
	case "label":
		return NewLabelField(ft.Name, ft.Text), nil
	case "text":
		return NewTextField(ft.Name, ft.Text), nil
	case "number":
		return NewNumberField(ft.Name, ft.Number), nil
	case "dropdown":
		return NewDropdownField(ft.Name, ft.Options, ft.Text), nil
	case "checkbox":
		return NewCheckboxField(ft.Name, ft.Checked), nil
	}
	return nil, fmt.Errorf("unknown field kind %q", ft.Kind)
}
