package store

import "errors"

// ErrNoSnapshot indicates a load from a database that was never saved to.
var ErrNoSnapshot = errors.New("store: no snapshot recorded")
