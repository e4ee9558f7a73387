package block

import "fmt"

// ConnectionKind identifies what a connection may attach to.
// Previous pairs with Next, Output pairs with Input.
type ConnectionKind string

const (
	KindPrevious ConnectionKind = "previous"
	KindNext     ConnectionKind = "next"
	KindInput    ConnectionKind = "input"
	KindOutput   ConnectionKind = "output"
)

// Opposite returns the kind this kind connects to.
func (k ConnectionKind) Opposite() ConnectionKind {
	switch k {
	case KindPrevious:
		return KindNext
	case KindNext:
		return KindPrevious
	case KindInput:
		return KindOutput
	case KindOutput:
		return KindInput
	}
	return ""
}

// Connection is a typed attachment point owned by a block (previous, next,
// output) or by one of its inputs (value slots hold an input-kind connection,
// statement slots hold a next-kind connection).
//
// Connections link symmetrically: after Connect, a.Target() == b and
// b.Target() == a. A connection is never half-linked between operations.
type Connection struct {
	kind   ConnectionKind
	owner  *Block
	input  *Input // nil for block-level connections
	target *Connection

	position Point
	// Offset of this connection relative to its owner's origin. Maintained
	// by the block's layout pass.
	offset Point

	// shadowJSON holds the serialized default block for this slot. When a
	// real block vacates the slot, the shadow is re-created from it.
	shadowJSON []byte
}

func newConnection(kind ConnectionKind, owner *Block) *Connection {
	return &Connection{kind: kind, owner: owner}
}

// Kind returns the connection's kind.
func (c *Connection) Kind() ConnectionKind { return c.kind }

// Owner returns the block this connection belongs to.
func (c *Connection) Owner() *Block { return c.owner }

// Input returns the owning input for slot connections, nil for block-level
// connections.
func (c *Connection) Input() *Input { return c.input }

// Target returns the connection this one is plugged into, or nil.
func (c *Connection) Target() *Connection { return c.target }

// IsConnected reports whether the connection is linked.
func (c *Connection) IsConnected() bool { return c.target != nil }

// Position returns the connection's workspace position.
func (c *Connection) Position() Point { return c.position }

// DistanceFrom returns the Euclidean distance to another connection.
func (c *Connection) DistanceFrom(other *Connection) float64 {
	return c.position.DistanceTo(other.position)
}

// SetShadow records the serialized default block for this slot. Pass nil to
// clear it.
func (c *Connection) SetShadow(subtreeJSON []byte) { c.shadowJSON = subtreeJSON }

// Shadow returns the serialized default block for this slot, or nil.
func (c *Connection) Shadow() []byte { return c.shadowJSON }

// CanConnect reports whether connecting to other would be structurally legal.
// An occupied next or input end stays legal — the controller splices into
// those — but a previous or output end has exactly one parent, so a linked
// child end is never a candidate again. It also rejects incompatible kinds,
// self connections, and links that would leave the owning block both a
// statement and a value.
func (c *Connection) CanConnect(other *Connection) bool {
	if other == nil || other.owner == c.owner {
		return false
	}
	if other.kind != c.kind.Opposite() {
		return false
	}
	// Only the parent side of a pair may already be linked.
	if (c.kind == KindPrevious || c.kind == KindOutput) && c.IsConnected() {
		return false
	}
	if (other.kind == KindPrevious || other.kind == KindOutput) && other.IsConnected() {
		return false
	}
	// A block is a statement in a sequence or a value in a slot, never both.
	if c.kind == KindPrevious && c.owner.output != nil && c.owner.output.IsConnected() {
		return false
	}
	if c.kind == KindOutput && c.owner.previous != nil && c.owner.previous.IsConnected() {
		return false
	}
	if other.kind == KindPrevious && other.owner.output != nil && other.owner.output.IsConnected() {
		return false
	}
	if other.kind == KindOutput && other.owner.previous != nil && other.owner.previous.IsConnected() {
		return false
	}
	return true
}

// Connect links this connection to other. Both ends must be unlinked and
// kind-compatible; violating either is a caller bug and panics.
func (c *Connection) Connect(other *Connection) {
	if other == nil {
		panic("block: Connect with nil connection")
	}
	if c.target != nil || other.target != nil {
		panic(fmt.Sprintf("block: Connect on already linked connection (%s -> %s)", c.kind, other.kind))
	}
	if other.kind != c.kind.Opposite() {
		panic(fmt.Sprintf("block: Connect with incompatible kinds %s and %s", c.kind, other.kind))
	}
	if other.owner == c.owner {
		panic("block: Connect between connections of the same block")
	}
	c.target = other
	other.target = c
}

// Disconnect unlinks both ends. Calling it on an unlinked connection is a
// caller bug and panics.
func (c *Connection) Disconnect() {
	if c.target == nil {
		panic(fmt.Sprintf("block: Disconnect on unlinked %s connection", c.kind))
	}
	c.target.target = nil
	c.target = nil
}

// setOffset positions the connection relative to the owner's origin and
// refreshes its workspace position.
func (c *Connection) setOffset(dx, dy float64) {
	c.offset = Point{X: dx, Y: dy}
	c.syncPosition()
}

// syncPosition recomputes the workspace position from the owner's position.
func (c *Connection) syncPosition() {
	c.position = c.owner.position.Add(c.offset.X, c.offset.Y)
}
