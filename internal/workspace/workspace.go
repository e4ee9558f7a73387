package workspace

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"blockpad/internal/block"
)

// DefaultSnapRadius is the default connect/bump distance in workspace units.
const DefaultSnapRadius = 25.0

// Workspace owns everything mutable about one open canvas: the root block
// list, the trash, the connection index and the variable name table. All
// access goes through explicit methods; nothing here is package-global.
type Workspace struct {
	id      string
	name    string
	factory *block.Factory
	manager *block.Manager

	roots     []*block.Block
	trash     []*block.SubtreeNode
	variables []string

	snapRadius float64
}

// New creates an empty workspace backed by the given block factory.
func New(name string, factory *block.Factory) *Workspace {
	return &Workspace{
		id:         uuid.New().String(),
		name:       name,
		factory:    factory,
		manager:    block.NewManager(),
		snapRadius: DefaultSnapRadius,
	}
}

// ID returns the workspace id.
func (ws *Workspace) ID() string { return ws.id }

// SetID overrides the generated id. Used when loading a saved workspace.
func (ws *Workspace) SetID(id string) { ws.id = id }

// Name returns the workspace display name.
func (ws *Workspace) Name() string { return ws.name }

// Factory returns the block factory.
func (ws *Workspace) Factory() *block.Factory { return ws.factory }

// ConnectionManager returns the spatial connection index.
func (ws *Workspace) ConnectionManager() *block.Manager { return ws.manager }

// SnapRadius returns the connect/bump distance.
func (ws *Workspace) SnapRadius() float64 { return ws.snapRadius }

// SetSnapRadius overrides the connect/bump distance.
func (ws *Workspace) SetSnapRadius(r float64) { ws.snapRadius = r }

// RootBlocks returns the top-level blocks. The slice is shared; callers must
// not mutate it.
func (ws *Workspace) RootBlocks() []*block.Block { return ws.roots }

// AddRootBlock appends a block to the root list. The block must not already
// be a root.
func (ws *Workspace) AddRootBlock(b *block.Block) {
	for _, r := range ws.roots {
		if r == b {
			panic(fmt.Sprintf("workspace: block %s is already a root", b.ID()))
		}
	}
	ws.roots = append(ws.roots, b)
}

// RemoveRootBlock drops a block from the root list. Removing a block that is
// not a root is a caller bug.
func (ws *Workspace) RemoveRootBlock(b *block.Block) {
	for i, r := range ws.roots {
		if r == b {
			ws.roots = append(ws.roots[:i], ws.roots[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("workspace: block %s is not a root", b.ID()))
}

// IsRootBlock reports whether the block is in the root list.
func (ws *Workspace) IsRootBlock(b *block.Block) bool {
	for _, r := range ws.roots {
		if r == b {
			return true
		}
	}
	return false
}

// BlockByID finds a block anywhere in the workspace, or nil.
func (ws *Workspace) BlockByID(id string) *block.Block {
	for _, root := range ws.roots {
		for _, d := range root.Descendants() {
			if d.ID() == id {
				return d
			}
		}
	}
	return nil
}

// HasBlock reports whether the block is reachable from a root.
func (ws *Workspace) HasBlock(b *block.Block) bool {
	return b != nil && ws.BlockByID(b.ID()) == b
}

// AddTrash retains a deleted subtree for later restore.
func (ws *Workspace) AddTrash(node *block.SubtreeNode) {
	ws.trash = append(ws.trash, node)
}

// Trash returns the retained deleted subtrees, oldest first.
func (ws *Workspace) Trash() []*block.SubtreeNode { return ws.trash }

// TakeTrash removes and returns the trash entry at index i.
func (ws *Workspace) TakeTrash(i int) (*block.SubtreeNode, error) {
	if i < 0 || i >= len(ws.trash) {
		return nil, fmt.Errorf("trash index %d out of range (%d entries)", i, len(ws.trash))
	}
	node := ws.trash[i]
	ws.trash = append(ws.trash[:i], ws.trash[i+1:]...)
	return node, nil
}

// RegisterVariable adds a variable name to the workspace table. Adding an
// existing name is a no-op.
func (ws *Workspace) RegisterVariable(name string) {
	for _, v := range ws.variables {
		if v == name {
			return
		}
	}
	ws.variables = append(ws.variables, name)
	sort.Strings(ws.variables)
}

// Variables returns the registered variable names, sorted.
func (ws *Workspace) Variables() []string { return ws.variables }
