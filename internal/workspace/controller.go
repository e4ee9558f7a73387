package workspace

import (
	"fmt"
	"math"

	"blockpad/internal/block"
)

// ViewBridge is the narrow surface the controller uses to keep the rendering
// layer's view tree in sync with the graph. A nil bridge runs the core
// headless; the renderer never mutates the graph back through it.
type ViewBridge interface {
	AddBlockView(b *block.Block)
	RemoveBlockView(b *block.Block)
	RequestLayout()
}

type callbackEntry struct {
	id   int
	cb   Callback
	mask EventType
}

// Controller runs every structural mutation of a workspace. Each public
// method is one transaction: events collected while it runs are fired as a
// single batch when the outermost call returns, and re-entrant mutations
// (a connect that cascades into bumps) fold into the open batch.
type Controller struct {
	ws   *Workspace
	view ViewBridge

	callbacks   []callbackEntry
	nextCBID    int
	pending     []Event
	pendingMask EventType
	depth       int

	drag *dragSession
}

// NewController creates a controller for the workspace. view may be nil for
// headless use.
func NewController(ws *Workspace, view ViewBridge) *Controller {
	return &Controller{ws: ws, view: view}
}

// Workspace returns the controlled workspace.
func (c *Controller) Workspace() *Workspace { return c.ws }

// AddCallback subscribes a listener to event batches containing at least one
// event matching mask. The returned handle identifies the registration for
// RemoveCallback; listeners themselves carry no identity (CallbackFunc is not
// comparable).
func (c *Controller) AddCallback(cb Callback, mask EventType) int {
	c.nextCBID++
	c.callbacks = append(c.callbacks, callbackEntry{id: c.nextCBID, cb: cb, mask: mask})
	return c.nextCBID
}

// RemoveCallback unsubscribes the listener registered under handle. Unknown
// handles are ignored.
func (c *Controller) RemoveCallback(handle int) {
	for i, entry := range c.callbacks {
		if entry.id == handle {
			c.callbacks = append(c.callbacks[:i], c.callbacks[i+1:]...)
			return
		}
	}
}

// ── transaction batching ─────────────────────────────────────

func (c *Controller) begin() {
	// A previous batch must have fully fired before a new top-level
	// operation may start; leftovers mean a dispatch was interrupted.
	if c.depth == 0 && len(c.pending) > 0 {
		panic("workspace: starting an operation while pending events are unfired")
	}
	c.depth++
}

func (c *Controller) end() {
	c.depth--
	if c.depth == 0 {
		c.firePendingEvents()
	}
}

func (c *Controller) addEvent(e Event) {
	c.pending = append(c.pending, e)
	c.pendingMask |= e.Type()
}

func (c *Controller) firePendingEvents() {
	if len(c.pending) == 0 {
		return
	}
	batch := c.pending
	mask := c.pendingMask
	c.pending = nil
	c.pendingMask = 0
	for _, entry := range c.callbacks {
		if entry.mask&mask != 0 {
			entry.cb.OnGraphChanged(batch)
		}
	}
}

// ── block lifecycle ──────────────────────────────────────────

// AddBlock builds a block from its template and places it as a new root.
func (c *Controller) AddBlock(typ string, pos block.Point) (*block.Block, error) {
	c.begin()
	defer c.end()

	b, err := c.ws.factory.Obtain(typ)
	if err != nil {
		return nil, err
	}
	b.MoveTo(pos)
	c.ws.AddRootBlock(b)
	c.ws.manager.AddSubtree(b)
	if c.view != nil {
		c.view.AddBlockView(b)
	}
	c.addEvent(&CreateEvent{ID: b.ID(), IDs: b.DescendantIDs(), Subtree: block.Subtree(b)})
	c.bumpNeighborsLocked(b)
	return b, nil
}

// MoveRootBlock repositions a root block and its whole subtree, then bumps
// any neighbors it now crowds.
func (c *Controller) MoveRootBlock(b *block.Block, pos block.Point) error {
	if !c.ws.IsRootBlock(b) {
		return fmt.Errorf("block %s is not a root", b.ID())
	}
	c.begin()
	defer c.end()
	old := b.Position()
	b.MoveTo(pos)
	c.ws.manager.MoveSubtree(b)
	c.addEvent(&MoveEvent{ID: b.ID(), OldPosition: old, NewPosition: b.Position()})
	c.bumpNeighborsLocked(b)
	return nil
}

// TrashRootBlock removes a root block, retaining its serialized subtree in
// the workspace trash.
func (c *Controller) TrashRootBlock(b *block.Block) error {
	if !c.ws.IsRootBlock(b) {
		panic(fmt.Sprintf("workspace: TrashRootBlock on non-root block %s", b.ID()))
	}
	if !b.IsDeletable() {
		return fmt.Errorf("block %s is not deletable", b.ID())
	}
	c.begin()
	defer c.end()
	node := block.Subtree(b)
	c.deleteSubtreeLocked(b)
	c.ws.AddTrash(node)
	return nil
}

// DeleteRootBlock removes a root block permanently, bypassing the trash.
func (c *Controller) DeleteRootBlock(b *block.Block) error {
	if !c.ws.IsRootBlock(b) {
		panic(fmt.Sprintf("workspace: DeleteRootBlock on non-root block %s", b.ID()))
	}
	if !b.IsDeletable() {
		return fmt.Errorf("block %s is not deletable", b.ID())
	}
	c.begin()
	defer c.end()
	c.deleteSubtreeLocked(b)
	return nil
}

// RestoreFromTrash re-creates the trash entry at index i as a new root.
func (c *Controller) RestoreFromTrash(i int) (*block.Block, error) {
	node, err := c.ws.TakeTrash(i)
	if err != nil {
		return nil, err
	}
	c.begin()
	defer c.end()
	b, err := block.Restore(c.ws.factory, node)
	if err != nil {
		return nil, fmt.Errorf("restore from trash: %w", err)
	}
	c.ws.AddRootBlock(b)
	c.ws.manager.AddSubtree(b)
	if c.view != nil {
		c.view.AddBlockView(b)
	}
	c.addEvent(&CreateEvent{ID: b.ID(), IDs: b.DescendantIDs(), Subtree: block.Subtree(b)})
	c.bumpNeighborsLocked(b)
	return b, nil
}

// deleteSubtreeLocked unlinks, unindexes and deletes a block subtree,
// emitting one Delete event. The block must be a root or a just-disconnected
// floating block.
func (c *Controller) deleteSubtreeLocked(b *block.Block) {
	node := block.Subtree(b)
	c.ws.manager.RemoveSubtree(b)
	if c.ws.IsRootBlock(b) {
		c.ws.RemoveRootBlock(b)
	}
	if c.view != nil {
		c.view.RemoveBlockView(b)
	}
	c.addEvent(&DeleteEvent{ID: b.ID(), IDs: b.DescendantIDs(), Subtree: node})
}

// SetFieldValue edits a field and emits a Change event.
func (c *Controller) SetFieldValue(b *block.Block, field, value string) error {
	f := b.Field(field)
	if f == nil {
		return fmt.Errorf("block %s has no field %q", b.ID(), field)
	}
	c.begin()
	defer c.end()
	old := f.Value()
	if err := f.SetValue(value); err != nil {
		return err
	}
	c.addEvent(&ChangeEvent{ID: b.ID(), Field: field, OldValue: old, NewValue: value})
	return nil
}

// ── connect / splice ─────────────────────────────────────────

// Connect attaches blockConn's block to otherConn, splicing into occupied
// slots and bumping displaced neighbors. Illegal pairings are caller bugs:
// the gesture layer must have validated the pair with CanConnect.
func (c *Controller) Connect(blockConn, otherConn *block.Connection) {
	if blockConn == nil || otherConn == nil {
		panic("workspace: Connect with nil connection")
	}
	if !blockConn.CanConnect(otherConn) {
		panic(fmt.Sprintf("workspace: illegal connection %s -> %s", blockConn.Kind(), otherConn.Kind()))
	}
	c.begin()
	defer c.end()
	c.connectLocked(blockConn, otherConn)
}

func (c *Controller) connectLocked(blockConn, otherConn *block.Connection) {
	b := blockConn.Owner()

	switch blockConn.Kind() {
	case block.KindOutput:
		if c.ws.IsRootBlock(b) {
			c.ws.RemoveRootBlock(b)
		}
		c.connectAsInput(otherConn, blockConn)
	case block.KindPrevious:
		if c.ws.IsRootBlock(b) {
			c.ws.RemoveRootBlock(b)
		}
		c.connectAfter(blockConn, otherConn)
	case block.KindInput:
		// The stationary value block is absorbed into the moving block.
		other := otherConn.Owner()
		if c.ws.IsRootBlock(other) {
			c.ws.RemoveRootBlock(other)
		}
		c.connectAsInput(blockConn, otherConn)
	case block.KindNext:
		// The stationary chain is appended after the moving block.
		other := otherConn.Owner()
		if c.ws.IsRootBlock(other) {
			c.ws.RemoveRootBlock(other)
		}
		c.connectAfter(otherConn, blockConn)
	}

	c.bumpNeighborsLocked(b)
	if c.view != nil {
		c.view.RequestLayout()
	}
}

// connectAsInput plugs childConn (an output) into parentConn (a value slot).
// A shadow occupant is deleted outright; a real occupant becomes the
// remainder and is reattached to the single open slot of the child's subtree
// when one exists, else bumped away as a new root — with more than one open
// slot the controller refuses to guess.
func (c *Controller) connectAsInput(parentConn, childConn *block.Connection) {
	child := childConn.Owner()

	if parentConn.IsConnected() {
		displaced := parentConn.Target()
		occupant := displaced.Owner()
		oldRef := parentRef(displaced)
		oldPos := occupant.Position()
		parentConn.Disconnect()

		if occupant.IsShadow() {
			// Shadows never persist once a real block takes the slot.
			c.deleteSubtreeLocked(occupant)
		} else {
			slot, count := child.OpenValueSlot()
			if count == 1 && slot.CanConnect(displaced) {
				slot.Connect(displaced)
				c.alignToParent(occupant)
				c.addEvent(&MoveEvent{
					ID: occupant.ID(), OldParent: oldRef, NewParent: parentRef(displaced),
					OldPosition: oldPos, NewPosition: occupant.Position(),
				})
			} else {
				c.ws.AddRootBlock(occupant)
				c.addEvent(&MoveEvent{
					ID: occupant.ID(), OldParent: oldRef, NewParent: nil,
					OldPosition: oldPos, NewPosition: occupant.Position(),
				})
				c.bumpBlockLocked(parentConn, displaced)
			}
		}
	}

	oldPos := child.Position()
	parentConn.Connect(childConn)
	c.alignToParent(child)
	c.addEvent(&MoveEvent{
		ID: child.ID(), OldParent: nil, NewParent: parentRef(childConn),
		OldPosition: oldPos, NewPosition: child.Position(),
	})
}

// connectAfter splices the chain starting at prevConn's block into the
// sequence slot parentNext (a block-level next or a statement input). Any
// existing downstream chain is reattached to the new chain's tail, or bumped
// to a new root when the tail is terminal.
func (c *Controller) connectAfter(prevConn, parentNext *block.Connection) {
	newBlock := prevConn.Owner()

	var remainderPrev *block.Connection
	var remOldRef *ParentRef
	var remOldPos block.Point
	if parentNext.IsConnected() {
		remainderPrev = parentNext.Target()
		remOldRef = parentRef(remainderPrev)
		remOldPos = remainderPrev.Owner().Position()
		parentNext.Disconnect()
	}

	oldPos := newBlock.Position()
	parentNext.Connect(prevConn)
	c.alignToParent(newBlock)
	c.addEvent(&MoveEvent{
		ID: newBlock.ID(), OldParent: nil, NewParent: parentRef(prevConn),
		OldPosition: oldPos, NewPosition: newBlock.Position(),
	})

	if remainderPrev == nil {
		return
	}
	remainder := remainderPrev.Owner()
	tail := newBlock.LastChainBlock()
	tailNext := tail.NextConnection()
	if tailNext != nil && !tailNext.IsConnected() && tailNext.CanConnect(remainderPrev) {
		tailNext.Connect(remainderPrev)
		c.alignToParent(remainder)
		c.addEvent(&MoveEvent{
			ID: remainder.ID(), OldParent: remOldRef, NewParent: parentRef(remainderPrev),
			OldPosition: remOldPos, NewPosition: remainder.Position(),
		})
	} else {
		// Tail is terminal: the remainder becomes a root and is pushed
		// clear of the chain it was cut from.
		c.ws.AddRootBlock(remainder)
		c.addEvent(&MoveEvent{
			ID: remainder.ID(), OldParent: remOldRef, NewParent: nil,
			OldPosition: remOldPos, NewPosition: remainder.Position(),
		})
		staticConn := tailNext
		if staticConn == nil {
			staticConn = tail.PreviousConnection()
		}
		c.bumpBlockLocked(staticConn, remainderPrev)
	}
}

// ExtractBlockAsRoot detaches a block from its parent slot and makes it a
// root. With reattachNext, the block's next chain is first spliced out and
// reattached directly to the former parent, healing the gap. A vacated value
// slot gets its shadow default back.
func (c *Controller) ExtractBlockAsRoot(b *block.Block, reattachNext bool) {
	if b == nil {
		panic("workspace: ExtractBlockAsRoot with nil block")
	}
	c.begin()
	defer c.end()
	c.extractLocked(b, reattachNext)
}

func (c *Controller) extractLocked(b *block.Block, reattachNext bool) {
	childSide := b.ParentConnection()
	if childSide == nil {
		return // already a root
	}
	parentSide := childSide.Target()
	oldRef := parentRef(childSide)
	oldPos := b.Position()
	childSide.Disconnect()

	if reattachNext && parentSide.Kind() == block.KindNext &&
		b.NextConnection() != nil && b.NextConnection().IsConnected() {
		healPrev := b.NextConnection().Target()
		healed := healPrev.Owner()
		healedOldRef := &ParentRef{BlockID: b.ID()}
		healedOldPos := healed.Position()
		b.NextConnection().Disconnect()
		parentSide.Connect(healPrev)
		c.alignToParent(healed)
		c.addEvent(&MoveEvent{
			ID: healed.ID(), OldParent: healedOldRef, NewParent: parentRef(healPrev),
			OldPosition: healedOldPos, NewPosition: healed.Position(),
		})
	}

	c.reinstateShadowLocked(parentSide)

	c.ws.AddRootBlock(b)
	c.addEvent(&MoveEvent{
		ID: b.ID(), OldParent: oldRef, NewParent: nil,
		OldPosition: oldPos, NewPosition: b.Position(),
	})
	c.bumpBlockLocked(parentSide, childSide)
	if c.view != nil {
		c.view.RequestLayout()
	}
}

// reinstateShadowLocked re-creates a value slot's shadow default once the
// slot is vacated.
func (c *Controller) reinstateShadowLocked(slot *block.Connection) {
	if slot.Kind() != block.KindInput || slot.Shadow() == nil || slot.IsConnected() {
		return
	}
	shadow, err := block.UnmarshalSubtree(c.ws.factory, slot.Shadow())
	if err != nil || shadow.OutputConnection() == nil {
		return
	}
	slot.Connect(shadow.OutputConnection())
	c.alignToParent(shadow)
	c.ws.manager.AddSubtree(shadow)
	c.addEvent(&CreateEvent{ID: shadow.ID(), IDs: shadow.DescendantIDs(), Subtree: block.Subtree(shadow)})
}

// ── bumping ──────────────────────────────────────────────────

// bumpBlockLocked translates impinging's root so impinging sits exactly the
// snap radius away from staticConn. Pure displacement, no graph change.
func (c *Controller) bumpBlockLocked(staticConn, impinging *block.Connection) {
	static := staticConn.Position()
	pos := impinging.Position()
	dx := pos.X - static.X
	dy := pos.Y - static.Y
	dist := math.Hypot(dx, dy)
	ux, uy := math.Sqrt2/2, math.Sqrt2/2
	if dist > 0 {
		ux, uy = dx/dist, dy/dist
	}
	snap := c.ws.snapRadius
	root := impinging.Owner().RootBlock()
	oldRootPos := root.Position()
	root.MoveBy(static.X+ux*snap-pos.X, static.Y+uy*snap-pos.Y)
	c.ws.manager.MoveSubtree(root)
	c.addEvent(&MoveEvent{
		ID: root.ID(), OldParent: nil, NewParent: nil,
		OldPosition: oldRootPos, NewPosition: root.Position(),
	})
	if c.view != nil {
		c.view.RequestLayout()
	}
}

// bumpNeighborsLocked pushes away every foreign block whose connections lie
// within snap distance of b's subtree. It recurses only into b's own
// connected subtree, so it always terminates.
func (c *Controller) bumpNeighborsLocked(b *block.Block) {
	root := b.RootBlock()
	for _, d := range b.Descendants() {
		for _, conn := range d.AllConnections() {
			for _, neighbor := range c.ws.manager.NeighborsWithin(conn, c.ws.snapRadius) {
				if neighbor.Owner().RootBlock() != root {
					c.bumpBlockLocked(conn, neighbor)
				}
			}
		}
	}
}

// alignToParent snaps a just-connected block's subtree onto its parent
// connection's position and re-indexes the moved connections.
func (c *Controller) alignToParent(b *block.Block) {
	pc := b.ParentConnection()
	if pc == nil {
		return
	}
	target := pc.Target().Position()
	pos := pc.Position()
	b.MoveBy(target.X-pos.X, target.Y-pos.Y)
	c.ws.manager.MoveSubtree(b)
}
