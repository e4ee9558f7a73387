package workspace

import "blockpad/internal/block"

// EventType is a bitmask of structural change categories. Callbacks register
// with a mask and receive any batch containing at least one matching event.
type EventType int

const (
	EventCreate EventType = 1 << iota
	EventDelete
	EventMove
	EventChange

	EventAll = EventCreate | EventDelete | EventMove | EventChange
)

// Event is one immutable structural change record. Events are collected
// while a top-level controller operation runs and dispatched as a single
// batch when it finishes, so listeners only ever observe whole transactions.
type Event interface {
	Type() EventType
	BlockID() string
}

// ParentRef identifies the slot a block is attached to: the parent block
// plus the input name for value/statement slots ("" for a block-level next).
type ParentRef struct {
	BlockID string `json:"blockId"`
	Input   string `json:"input,omitempty"`
}

// CreateEvent records a new block subtree entering the workspace.
type CreateEvent struct {
	ID      string             `json:"blockId"`
	IDs     []string           `json:"blockIds"`
	Subtree *block.SubtreeNode `json:"subtree"`
}

func (e *CreateEvent) Type() EventType { return EventCreate }
func (e *CreateEvent) BlockID() string { return e.ID }

// DeleteEvent records a block subtree leaving the workspace. The serialized
// form is what undo needs to bring it back.
type DeleteEvent struct {
	ID      string             `json:"blockId"`
	IDs     []string           `json:"blockIds"`
	Subtree *block.SubtreeNode `json:"subtree"`
}

func (e *DeleteEvent) Type() EventType { return EventDelete }
func (e *DeleteEvent) BlockID() string { return e.ID }

// MoveEvent records a block changing parent slot and/or position. A nil
// parent ref means the block was (or became) a root block.
type MoveEvent struct {
	ID          string      `json:"blockId"`
	OldParent   *ParentRef  `json:"oldParent,omitempty"`
	NewParent   *ParentRef  `json:"newParent,omitempty"`
	OldPosition block.Point `json:"oldPosition"`
	NewPosition block.Point `json:"newPosition"`
}

func (e *MoveEvent) Type() EventType { return EventMove }
func (e *MoveEvent) BlockID() string { return e.ID }

// ChangeEvent records a field value edit.
type ChangeEvent struct {
	ID       string `json:"blockId"`
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

func (e *ChangeEvent) Type() EventType { return EventChange }
func (e *ChangeEvent) BlockID() string { return e.ID }

// Callback receives event batches. The batch slice is shared and must be
// treated as read-only.
type Callback interface {
	OnGraphChanged(events []Event)
}

// CallbackFunc adapts a function to the Callback interface.
type CallbackFunc func(events []Event)

func (f CallbackFunc) OnGraphChanged(events []Event) { f(events) }

// parentRef describes where childConn is currently attached, or nil when it
// is unlinked.
func parentRef(childConn *block.Connection) *ParentRef {
	if childConn == nil || !childConn.IsConnected() {
		return nil
	}
	target := childConn.Target()
	ref := &ParentRef{BlockID: target.Owner().ID()}
	if in := target.Input(); in != nil {
		ref.Input = in.Name()
	}
	return ref
}
