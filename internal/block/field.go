package block

import (
	"fmt"
	"strconv"
)

// Field is one editable (or static) element inside an input row. Each field
// kind is its own type implementing this interface; value changes are routed
// through the controller so they appear in the event stream.
type Field interface {
	// Name identifies the field within its block, e.g. "NUM" or "VAR".
	Name() string
	// Value returns the field's current value as text.
	Value() string
	// SetValue parses and stores a new value. Returns an error for values
	// the field kind cannot represent; the field is unchanged on error.
	SetValue(v string) error
	// Kind returns the serialization tag for this field type.
	Kind() string
}

// LabelField is static display text. SetValue rejects all changes.
type LabelField struct {
	name string
	text string
}

func NewLabelField(name, text string) *LabelField { return &LabelField{name: name, text: text} }

func (f *LabelField) Name() string  { return f.name }
func (f *LabelField) Value() string { return f.text }
func (f *LabelField) Kind() string  { return "label" }
func (f *LabelField) SetValue(string) error {
	return fmt.Errorf("label field %q is not editable", f.name)
}

// TextField holds free-form text.
type TextField struct {
	name string
	text string
}

func NewTextField(name, text string) *TextField { return &TextField{name: name, text: text} }

func (f *TextField) Name() string  { return f.name }
func (f *TextField) Value() string { return f.text }
func (f *TextField) Kind() string  { return "text" }
func (f *TextField) SetValue(v string) error {
	f.text = v
	return nil
}

// NumberField holds a numeric value, kept as float64.
type NumberField struct {
	name string
	num  float64
}

func NewNumberField(name string, num float64) *NumberField {
	return &NumberField{name: name, num: num}
}

func (f *NumberField) Name() string  { return f.name }
func (f *NumberField) Value() string { return strconv.FormatFloat(f.num, 'g', -1, 64) }
func (f *NumberField) Kind() string  { return "number" }
func (f *NumberField) Number() float64 { return f.num }
func (f *NumberField) SetValue(v string) error {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("number field %q: %w", f.name, err)
	}
	f.num = n
	return nil
}

// DropdownField holds one choice from a fixed option list.
type DropdownField struct {
	name     string
	options  []string
	selected string
}

func NewDropdownField(name string, options []string, selected string) *DropdownField {
	return &DropdownField{name: name, options: options, selected: selected}
}

func (f *DropdownField) Name() string      { return f.name }
func (f *DropdownField) Value() string     { return f.selected }
func (f *DropdownField) Kind() string      { return "dropdown" }
func (f *DropdownField) Options() []string { return f.options }
func (f *DropdownField) SetValue(v string) error {
	for _, opt := range f.options {
		if opt == v {
			f.selected = v
			return nil
		}
	}
	return fmt.Errorf("dropdown field %q has no option %q", f.name, v)
}

// CheckboxField holds a boolean, serialized as "true"/"false".
type CheckboxField struct {
	name    string
	checked bool
}

func NewCheckboxField(name string, checked bool) *CheckboxField {
	return &CheckboxField{name: name, checked: checked}
}

func (f *CheckboxField) Name() string  { return f.name }
func (f *CheckboxField) Kind() string  { return "checkbox" }
func (f *CheckboxField) Checked() bool { return f.checked }
func (f *CheckboxField) Value() string {
	if f.checked {
		return "true"
	}
	return "false"
}
func (f *CheckboxField) SetValue(v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("checkbox field %q: %w", f.name, err)
	}
	f.checked = b
	return nil
}
