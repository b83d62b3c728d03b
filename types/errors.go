package types

import "errors"

var (
	// ErrInvalidParameter covers bad window sizes, fee rates, capital and granularities.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidInput covers empty or malformed series and zero-price divisions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable is produced by candle loaders, never by the engine itself.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMissingCredential   = errors.New("missing credential")
)
