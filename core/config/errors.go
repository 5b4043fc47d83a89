package config

import "errors"

// ErrNilConfig is returned when Load is called with a nil pointer.
var ErrNilConfig = errors.New("config target cannot be nil")
