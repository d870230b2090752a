// Package resolve implements the pluggable, asynchronous DNS resolution
// engine: the Query/Result data model, the backend registry, and the
// single-query, query-set, and recurring-query drivers built on top of it.
// Backends (package backend/recursive, or test doubles) are the only thing
// that actually talks to a nameserver; this package only orchestrates them.
package resolve

import "errors"

var (
	ErrInvalidArgument   = errors.New("resolve: invalid argument")
	ErrNoResolver        = errors.New("resolve: no resolver registered")
	ErrDuplicateName     = errors.New("resolve: duplicate backend name")
	ErrMissingCapability = errors.New("resolve: backend missing required capability")
	ErrNoName            = errors.New("resolve: backend name is empty")
	ErrBackendError      = errors.New("resolve: backend error")
	ErrAlreadyStarted    = errors.New("resolve: query set already started")
	ErrEmptyResult       = errors.New("resolve: sync resolve completed without a result")
	ErrAlreadySet        = errors.New("resolve: value already set")
	ErrTimeout           = errors.New("resolve: operation timed out")
)
