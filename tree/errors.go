package tree

import "errors"

var (
	// ErrNodeNotFound indicates no entry exists for the given identifier.
	ErrNodeNotFound = errors.New("tree: node not found")

	// ErrParentNotFound indicates the referenced parent does not exist.
	ErrParentNotFound = errors.New("tree: parent not found")

	// ErrDuplicateNode indicates an entry already exists for the identifier.
	ErrDuplicateNode = errors.New("tree: duplicate node identifier")

	// ErrInvalidPosition indicates a child position outside the 0-3 range.
	ErrInvalidPosition = errors.New("tree: position must be between 0 and 3")

	// ErrPositionOccupied indicates the parent already has a child at the position.
	ErrPositionOccupied = errors.New("tree: position already occupied")

	// ErrInvalidRoot indicates the first node was not a parentless position-0 node.
	ErrInvalidRoot = errors.New("tree: first node must be parentless at position 0")

	// ErrPathOutOfRange indicates a slot index beyond the path length.
	ErrPathOutOfRange = errors.New("tree: path slot index out of range")
)
