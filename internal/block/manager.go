package block

import "sort"

// Manager is the workspace's spatial index over connections. Connections are
// bucketed by kind and each bucket is kept sorted by Y, so a neighbor query
// scans only the Y window of the complementary bucket instead of the whole
// workspace.
//
// The index must be told about every position change (Move / MoveSubtree) or
// queries silently go stale. Connections of a block mid-drag are removed from
// the index so a dragged block can never match itself.
type Manager struct {
	buckets map[ConnectionKind][]*Connection
}

// NewManager returns an empty connection index.
func NewManager() *Manager {
	return &Manager{buckets: map[ConnectionKind][]*Connection{
		KindPrevious: nil,
		KindNext:     nil,
		KindInput:    nil,
		KindOutput:   nil,
	}}
}

// Add inserts a connection into its kind bucket, keeping Y order.
func (m *Manager) Add(c *Connection) {
	bucket := m.buckets[c.kind]
	i := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].position.Y >= c.position.Y
	})
	bucket = append(bucket, nil)
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = c
	m.buckets[c.kind] = bucket
}

// Remove deletes a connection from its bucket. Removing a connection that is
// not indexed is a no-op.
func (m *Manager) Remove(c *Connection) {
	bucket := m.buckets[c.kind]
	for i, cand := range bucket {
		if cand == c {
			m.buckets[c.kind] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// Contains reports whether the connection is currently indexed.
func (m *Manager) Contains(c *Connection) bool {
	for _, cand := range m.buckets[c.kind] {
		if cand == c {
			return true
		}
	}
	return false
}

// Move re-sorts a connection after its owner moved. Must be called for every
// indexed connection whose position changed.
func (m *Manager) Move(c *Connection) {
	m.Remove(c)
	m.Add(c)
}

// AddSubtree indexes every connection of the block and its descendants.
func (m *Manager) AddSubtree(b *Block) {
	for _, d := range b.Descendants() {
		for _, c := range d.AllConnections() {
			m.Add(c)
		}
	}
}

// RemoveSubtree drops every connection of the block and its descendants from
// the index. Used on drag start.
func (m *Manager) RemoveSubtree(b *Block) {
	for _, d := range b.Descendants() {
		for _, c := range d.AllConnections() {
			m.Remove(c)
		}
	}
}

// MoveSubtree re-sorts every connection of the block and its descendants.
func (m *Manager) MoveSubtree(b *Block) {
	for _, d := range b.Descendants() {
		for _, c := range d.AllConnections() {
			m.Move(c)
		}
	}
}

// NeighborsWithin returns the compatible connections within maxRadius of c,
// closest first. Connections on c's own root block are excluded — the result
// order is the tie-break the bump pass relies on.
func (m *Manager) NeighborsWithin(c *Connection, maxRadius float64) []*Connection {
	bucket := m.buckets[c.kind.Opposite()]
	root := c.owner.RootBlock()

	lo := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].position.Y >= c.position.Y-maxRadius
	})

	var result []*Connection
	for i := lo; i < len(bucket) && bucket[i].position.Y <= c.position.Y+maxRadius; i++ {
		cand := bucket[i]
		if cand.owner.RootBlock() == root {
			continue
		}
		if c.DistanceFrom(cand) > maxRadius {
			continue
		}
		if !c.CanConnect(cand) {
			continue
		}
		result = append(result, cand)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return c.DistanceFrom(result[i]) < c.DistanceFrom(result[j])
	})
	return result
}

// ClosestWithin returns the nearest compatible connection within maxRadius,
// or nil.
func (m *Manager) ClosestWithin(c *Connection, maxRadius float64) *Connection {
	neighbors := m.NeighborsWithin(c, maxRadius)
	if len(neighbors) == 0 {
		return nil
	}
	return neighbors[0]
}

// Size returns the total number of indexed connections. Used by tests and
// the MCP inspection surface.
func (m *Manager) Size() int {
	n := 0
	for _, bucket := range m.buckets {
		n += len(bucket)
	}
	return n
}
