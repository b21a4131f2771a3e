package asset

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by LoadError.
var (
	ErrMalformedDirective = errors.New("malformed directive")
	ErrIndexOutOfRange    = errors.New("face index out of range")
	ErrNoActiveGroup      = errors.New("no active group")
	ErrNoActiveMaterial   = errors.New("no active material")
	ErrUnknownMaterial    = errors.New("unknown material")
)

// Stream names used in LoadError.
const (
	StreamMesh     = "mesh"
	StreamMaterial = "material"
)

// LoadError identifies the line that aborted a load.
type LoadError struct {
	Stream string
	Line   int
	Text   string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.Stream, e.Line, e.Err, e.Text)
}

func (e *LoadError) Unwrap() error { return e.Err }
