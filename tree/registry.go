package tree

// MaxChildren is the fan-out of the referral tree.
const MaxChildren = 4

// SelfPosition is the sentinel child position returned by IsAncestor when
// the candidate is the root node itself. It never collides with a real
// position (0-3).
const SelfPosition = uint8(0xFF)

// Entry holds the structural record for one node: its parent link, its
// position under that parent, and the packed root-to-node path.
type Entry struct {
	ID       uint64
	ParentID uint64 // 0 for the root node
	Position uint8  // 0-3
	Path     Path   // empty for the root node
}

// Registry assigns and queries hierarchical positions in the quaternary
// referral tree. Business accumulators live elsewhere; the registry only
// knows shape.
type Registry struct {
	entries  map[uint64]*Entry
	occupied map[uint64]*[MaxChildren]bool
	rootID   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[uint64]*Entry),
		occupied: make(map[uint64]*[MaxChildren]bool),
	}
}

// Add records a node under parentID at position. The very first node added
// must be parentless (parentID 0) at position 0 and becomes the root. Every
// later node must reference an existing parent and a free position.
func (r *Registry) Add(id, parentID uint64, position uint8) (*Entry, error) {
	if _, ok := r.entries[id]; ok {
		return nil, ErrDuplicateNode
	}

	if len(r.entries) == 0 {
		if parentID != 0 || position != 0 {
			return nil, ErrInvalidRoot
		}
		e := &Entry{ID: id, ParentID: 0, Position: 0, Path: nil}
		r.entries[id] = e
		r.rootID = id
		return e, nil
	}

	if position >= MaxChildren {
		return nil, ErrInvalidPosition
	}
	parent, ok := r.entries[parentID]
	if !ok {
		return nil, ErrParentNotFound
	}

	occ := r.occupied[parentID]
	if occ == nil {
		occ = &[MaxChildren]bool{}
		r.occupied[parentID] = occ
	}
	if occ[position] {
		return nil, ErrPositionOccupied
	}

	e := &Entry{
		ID:       id,
		ParentID: parentID,
		Position: position,
		Path:     parent.Path.Append(position),
	}
	r.entries[id] = e
	occ[position] = true
	return e, nil
}

// Get returns the entry for id.
func (r *Registry) Get(id uint64) (*Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return e, nil
}

// RootID returns the identifier of the root node, or 0 if the tree is empty.
func (r *Registry) RootID() uint64 { return r.rootID }

// Len returns the number of registered nodes.
func (r *Registry) Len() int { return len(r.entries) }

// Occupied reports which of parentID's four positions hold a child.
func (r *Registry) Occupied(parentID uint64) [MaxChildren]bool {
	if occ := r.occupied[parentID]; occ != nil {
		return *occ
	}
	return [MaxChildren]bool{}
}

// IsAncestor reports whether candidateID lies in rootID's subtree. When it
// does, the returned position identifies which direct child of rootID the
// candidate descends through. rootID == candidateID yields (true,
// SelfPosition). The prefix test compares whole path words first and only
// inspects individual slots on the final partial word.
func (r *Registry) IsAncestor(rootID, candidateID uint64) (bool, uint8, error) {
	root, ok := r.entries[rootID]
	if !ok {
		return false, 0, ErrNodeNotFound
	}
	cand, ok := r.entries[candidateID]
	if !ok {
		return false, 0, ErrNodeNotFound
	}

	if rootID == candidateID {
		return true, SelfPosition, nil
	}

	rootLen := root.Path.Len()
	if cand.Path.Len() <= rootLen {
		return false, 0, nil
	}
	if !cand.Path.HasPrefix(root.Path, rootLen) {
		return false, 0, nil
	}

	pos, err := cand.Path.At(rootLen)
	if err != nil {
		return false, 0, err
	}
	return true, pos, nil
}

// CloneShape returns a copy of the registry sharing entry records but with
// independent occupancy tables. It backs all-or-nothing validation of
// multi-node imports.
func (r *Registry) CloneShape() *Registry {
	out := &Registry{
		entries:  make(map[uint64]*Entry, len(r.entries)),
		occupied: make(map[uint64]*[MaxChildren]bool, len(r.occupied)),
		rootID:   r.rootID,
	}
	for id, e := range r.entries {
		out.entries[id] = e
	}
	for id, occ := range r.occupied {
		cp := *occ
		out.occupied[id] = &cp
	}
	return out
}
