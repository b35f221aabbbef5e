package function

import "errors"

// Sentinel errors for function loading. Call sites wrap these with
// fmt.Errorf("...: %w", err) to add the path or function name.
var (
	// ErrBodyNotLoaded is returned when something asks to execute a
	// function whose body is still a Deferred file placeholder.
	ErrBodyNotLoaded = errors.New("function: body not loaded")

	// ErrLoadFailed is returned when reading or decoding a deferred
	// body or its header fails.
	ErrLoadFailed = errors.New("function: load failed")
)
