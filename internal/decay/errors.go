package decay

import "errors"

var (
	// ErrInvalidArgument reports a bad constructor argument or a nil key.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrKeyNotFound is returned by Map.Get for a missing key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrDuplicateKey is returned by Map.Add when the key is already present.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidOperation reports Timer misuse: starting a running timer,
	// pausing an idle one, or starting a closed one.
	ErrInvalidOperation = errors.New("invalid operation")
)
