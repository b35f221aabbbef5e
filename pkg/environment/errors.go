package environment

import "errors"

// ErrAlreadyRegistered is returned by RegisterFunction when a
// function already carries an id, or when its name collides with an
// already-registered function.
var ErrAlreadyRegistered = errors.New("environment: function already registered")
