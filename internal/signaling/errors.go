package signaling

import "errors"

// Errors returned by the core. Any operation returning one of these has
// left the registry and room table untouched.
var (
	ErrMissingRoom       = errors.New("room id is required")
	ErrMalformed         = errors.New("malformed payload")
	ErrUnknownKind       = errors.New("unknown signaling kind")
	ErrNoDestination     = errors.New("signal has neither target nor room")
	ErrNotRegistered     = errors.New("connection not registered")
	ErrAlreadyRegistered = errors.New("connection already registered")

	// ErrInconsistent reports a broken membership invariant. It is only
	// produced by State.Verify and should never be seen outside tests.
	ErrInconsistent = errors.New("membership state inconsistent")
)
