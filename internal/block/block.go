package block

// Layout metrics. The real row geometry lives in the frontend; the core only
// needs stable connection positions, so every block uses the same grid.
const (
	blockWidth      = 180.0
	rowHeight       = 40.0
	statementIndent = 16.0
)

// Block is one node of the program graph. It owns its connections and
// inputs; links to other blocks exist only through connection targets.
type Block struct {
	id        string
	typ       string
	shadow    bool
	deletable bool
	position  Point

	previous *Connection // nil if the type has no previous notch
	next     *Connection
	output   *Connection
	inputs   []*Input
}

// ID returns the block's unique id.
func (b *Block) ID() string { return b.id }

// Type returns the block's template type name.
func (b *Block) Type() string { return b.typ }

// IsShadow reports whether the block is a placeholder default.
func (b *Block) IsShadow() bool { return b.shadow }

// IsDeletable reports whether the user may delete the block.
func (b *Block) IsDeletable() bool { return b.deletable }

// Position returns the block's workspace position.
func (b *Block) Position() Point { return b.position }

// PreviousConnection returns the previous notch, or nil.
func (b *Block) PreviousConnection() *Connection { return b.previous }

// NextConnection returns the next notch, or nil.
func (b *Block) NextConnection() *Connection { return b.next }

// OutputConnection returns the output plug, or nil.
func (b *Block) OutputConnection() *Connection { return b.output }

// Inputs returns the block's inputs in order.
func (b *Block) Inputs() []*Input { return b.inputs }

// Input returns the named input, or nil.
func (b *Block) Input(name string) *Input {
	for _, in := range b.inputs {
		if in.name == name {
			return in
		}
	}
	return nil
}

// Field returns the named field from any input, or nil.
func (b *Block) Field(name string) Field {
	for _, in := range b.inputs {
		if f := in.Field(name); f != nil {
			return f
		}
	}
	return nil
}

// ParentConnection returns the connection on this block that links it to its
// parent (previous or output), or nil for a root block.
func (b *Block) ParentConnection() *Connection {
	if b.previous != nil && b.previous.IsConnected() {
		return b.previous
	}
	if b.output != nil && b.output.IsConnected() {
		return b.output
	}
	return nil
}

// ParentBlock returns the block this one is attached to, or nil.
func (b *Block) ParentBlock() *Block {
	pc := b.ParentConnection()
	if pc == nil {
		return nil
	}
	return pc.Target().Owner()
}

// RootBlock walks parent links up to the top-level block.
func (b *Block) RootBlock() *Block {
	root := b
	for {
		parent := root.ParentBlock()
		if parent == nil {
			return root
		}
		root = parent
	}
}

// NextBlock returns the block connected after this one, or nil.
func (b *Block) NextBlock() *Block {
	if b.next == nil || !b.next.IsConnected() {
		return nil
	}
	return b.next.Target().Owner()
}

// LastChainBlock follows next links to the tail of this block's sequence.
func (b *Block) LastChainBlock() *Block {
	last := b
	for {
		next := last.NextBlock()
		if next == nil {
			return last
		}
		last = next
	}
}

// AllConnections returns the block's own connections: previous, next, output
// and every input connection, in that order.
func (b *Block) AllConnections() []*Connection {
	var conns []*Connection
	if b.previous != nil {
		conns = append(conns, b.previous)
	}
	if b.next != nil {
		conns = append(conns, b.next)
	}
	if b.output != nil {
		conns = append(conns, b.output)
	}
	for _, in := range b.inputs {
		if in.conn != nil {
			conns = append(conns, in.conn)
		}
	}
	return conns
}

// ChildBlocks returns the blocks directly attached below this one: input
// children first, then the next block.
func (b *Block) ChildBlocks() []*Block {
	var children []*Block
	for _, in := range b.inputs {
		if child := in.ConnectedBlock(); child != nil {
			children = append(children, child)
		}
	}
	if next := b.NextBlock(); next != nil {
		children = append(children, next)
	}
	return children
}

// Descendants returns this block and every block attached beneath it,
// depth-first.
func (b *Block) Descendants() []*Block {
	blocks := []*Block{b}
	for _, child := range b.ChildBlocks() {
		blocks = append(blocks, child.Descendants()...)
	}
	return blocks
}

// DescendantIDs returns the ids of this block and all blocks beneath it.
func (b *Block) DescendantIDs() []string {
	descendants := b.Descendants()
	ids := make([]string, len(descendants))
	for i, d := range descendants {
		ids[i] = d.id
	}
	return ids
}

// OpenValueSlot scans this block's subtree for unconnected value inputs.
// It returns the single open slot when exactly one exists; otherwise the
// connection is nil and count tells the caller whether the subtree was full
// (0) or ambiguous (>1).
func (b *Block) OpenValueSlot() (conn *Connection, count int) {
	for _, d := range b.Descendants() {
		for _, in := range d.inputs {
			if in.kind == InputValue && in.conn != nil && !in.conn.IsConnected() {
				conn = in.conn
				count++
			}
		}
	}
	if count != 1 {
		conn = nil
	}
	return conn, count
}

// MoveTo places the block's origin at p, dragging its whole subtree along.
func (b *Block) MoveTo(p Point) {
	b.MoveBy(p.X-b.position.X, p.Y-b.position.Y)
}

// MoveBy translates the block and every block attached beneath it. Callers
// holding the subtree in a connection manager must re-index afterwards.
func (b *Block) MoveBy(dx, dy float64) {
	b.position = b.position.Add(dx, dy)
	for _, c := range b.AllConnections() {
		c.syncPosition()
	}
	for _, child := range b.ChildBlocks() {
		child.MoveBy(dx, dy)
	}
}

// height is the vertical extent used for connection offsets.
func (b *Block) height() float64 {
	rows := len(b.inputs)
	if rows == 0 {
		rows = 1
	}
	return rowHeight * float64(rows)
}

// updateLayout assigns connection offsets from the fixed grid metrics and
// refreshes workspace positions. Called once at construction and after
// structural edits to the input list.
func (b *Block) updateLayout() {
	if b.previous != nil {
		b.previous.setOffset(0, 0)
	}
	if b.next != nil {
		b.next.setOffset(0, b.height())
	}
	if b.output != nil {
		b.output.setOffset(0, rowHeight/2)
	}
	for i, in := range b.inputs {
		if in.conn == nil {
			continue
		}
		y := rowHeight*float64(i) + rowHeight/2
		switch in.kind {
		case InputValue:
			in.conn.setOffset(blockWidth, y)
		case InputStatement:
			in.conn.setOffset(statementIndent, y)
		}
	}
}
