package workspace

import (
	"fmt"

	"blockpad/internal/block"
)

// dragSession tracks one in-flight drag gesture. The graph is only touched
// once the gesture actually moves: a press-and-release without movement (or
// a cancel before movement) never mutates anything.
type dragSession struct {
	b        *block.Block
	startPos block.Point
	moved    bool

	// Set when the first move detached the block from its parent.
	detached   bool
	childSide  *block.Connection
	parentSide *block.Connection
	oldRef     *ParentRef

	candidateLocal  *block.Connection
	candidateTarget *block.Connection
}

// StartDrag begins a drag gesture on a block. The dragged subtree leaves the
// connection index so it cannot match itself during candidate queries.
func (c *Controller) StartDrag(b *block.Block) error {
	if c.drag != nil {
		return fmt.Errorf("drag already in progress for block %s", c.drag.b.ID())
	}
	if b == nil {
		return fmt.Errorf("drag on nil block")
	}
	c.ws.manager.RemoveSubtree(b)
	c.drag = &dragSession{b: b, startPos: b.Position()}
	return nil
}

// DragMove applies a gesture delta. The first move detaches the block from
// its parent (the downstream next-chain travels with it); every move
// refreshes the candidate connection pair used for snap feedback.
func (c *Controller) DragMove(dx, dy float64) error {
	s := c.drag
	if s == nil {
		return fmt.Errorf("no drag in progress")
	}
	if !s.moved {
		s.moved = true
		if childSide := s.b.ParentConnection(); childSide != nil {
			s.detached = true
			s.childSide = childSide
			s.parentSide = childSide.Target()
			s.oldRef = parentRef(childSide)
			childSide.Disconnect()
		}
	}
	s.b.MoveBy(dx, dy)
	s.candidateLocal, s.candidateTarget = c.findDragCandidate(s.b)
	return nil
}

// DragCandidate returns the current snap candidate pair (local connection on
// the dragged subtree, target in the workspace), or nils. The gesture layer
// uses it for highlight feedback.
func (c *Controller) DragCandidate() (local, target *block.Connection) {
	if c.drag == nil {
		return nil, nil
	}
	return c.drag.candidateLocal, c.drag.candidateTarget
}

// EndDrag commits the gesture: the subtree rejoins the index, then either
// connects to the candidate pair or stays where it was dropped. All
// resulting events fire as one batch.
func (c *Controller) EndDrag() error {
	s := c.drag
	if s == nil {
		return fmt.Errorf("no drag in progress")
	}
	c.drag = nil

	c.begin()
	defer c.end()

	c.ws.manager.AddSubtree(s.b)

	if s.detached {
		c.ws.AddRootBlock(s.b)
		c.addEvent(&MoveEvent{
			ID: s.b.ID(), OldParent: s.oldRef, NewParent: nil,
			OldPosition: s.startPos, NewPosition: s.b.Position(),
		})
		c.reinstateShadowLocked(s.parentSide)
	} else if s.moved && c.ws.IsRootBlock(s.b) {
		c.addEvent(&MoveEvent{
			ID: s.b.ID(), OldParent: nil, NewParent: nil,
			OldPosition: s.startPos, NewPosition: s.b.Position(),
		})
	}

	if s.candidateLocal != nil && s.candidateTarget != nil &&
		s.candidateLocal.CanConnect(s.candidateTarget) {
		c.connectLocked(s.candidateLocal, s.candidateTarget)
	}

	if c.view != nil {
		c.view.RequestLayout()
	}
	return nil
}

// CancelDrag rolls the gesture back: position restored, parent relinked if
// the drag had detached it, index membership restored. No events are emitted
// — a cancelled drag never happened as far as listeners are concerned.
func (c *Controller) CancelDrag() error {
	s := c.drag
	if s == nil {
		return fmt.Errorf("no drag in progress")
	}
	c.drag = nil

	s.b.MoveTo(s.startPos)
	if s.detached {
		s.childSide.Connect(s.parentSide)
	}
	c.ws.manager.AddSubtree(s.b)
	if c.view != nil {
		c.view.RequestLayout()
	}
	return nil
}

// findDragCandidate scans the dragged subtree's open connections for the
// closest compatible workspace connection within snap distance.
func (c *Controller) findDragCandidate(b *block.Block) (local, target *block.Connection) {
	best := c.ws.snapRadius
	for _, d := range b.Descendants() {
		for _, conn := range d.AllConnections() {
			if conn.IsConnected() {
				continue
			}
			cand := c.ws.manager.ClosestWithin(conn, c.ws.snapRadius)
			if cand == nil {
				continue
			}
			if dist := conn.DistanceFrom(cand); dist <= best {
				best = dist
				local, target = conn, cand
			}
		}
	}
	return local, target
}
