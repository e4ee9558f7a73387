package block

// InputKind distinguishes the three input row types.
type InputKind string

const (
	// InputValue holds a plugged-in value block via an input-kind connection.
	InputValue InputKind = "value"
	// InputStatement nests a statement chain via a next-kind connection.
	InputStatement InputKind = "statement"
	// InputDummy is a field-only row with no connection.
	InputDummy InputKind = "dummy"
)

// Alignment positions an input's fields within its row.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Input is one row of a block: an ordered run of fields plus, for value and
// statement kinds, exactly one connection the input owns.
type Input struct {
	name   string
	kind   InputKind
	align  Alignment
	owner  *Block
	fields []Field
	conn   *Connection // nil for dummy inputs
}

// Name returns the input's name within its block.
func (in *Input) Name() string { return in.name }

// Kind returns the input's kind.
func (in *Input) Kind() InputKind { return in.kind }

// Alignment returns the input's field alignment.
func (in *Input) Alignment() Alignment { return in.align }

// Owner returns the block this input belongs to.
func (in *Input) Owner() *Block { return in.owner }

// Fields returns the input's fields in order.
func (in *Input) Fields() []Field { return in.fields }

// Connection returns the input's connection, nil for dummy inputs.
func (in *Input) Connection() *Connection { return in.conn }

// Field returns the named field, or nil.
func (in *Input) Field(name string) Field {
	for _, f := range in.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// ConnectedBlock returns the block plugged into this input, or nil.
func (in *Input) ConnectedBlock() *Block {
	if in.conn == nil || !in.conn.IsConnected() {
		return nil
	}
	return in.conn.Target().Owner()
}
