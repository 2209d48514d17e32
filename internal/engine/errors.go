package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceFetch aborts a pool build: there are no candidates to probe.
	ErrSourceFetch = errors.New("endpoint source fetch failed")

	// ErrMissingCredential means a URI template references an unset credential.
	ErrMissingCredential = errors.New("missing credential")

	// ErrConnection covers dial and transport failures while probing.
	ErrConnection = errors.New("endpoint connection failed")

	// ErrProbeTimeout is returned when a probe exceeds its deadline.
	ErrProbeTimeout = errors.New("endpoint probe timed out")

	// ErrExtraDataTooLong signals the proof-of-authority header quirk.
	ErrExtraDataTooLong = errors.New("block extraData exceeds maximum length")

	// ErrMalformedBlock is any other structural problem in a probe response.
	ErrMalformedBlock = errors.New("malformed block in probe response")

	// ErrChainMismatch means the endpoint serves a different chain.
	ErrChainMismatch = errors.New("endpoint serves a different chain")

	// ErrEmptyPool is returned by rotation access when nothing is healthy.
	ErrEmptyPool = errors.New("no healthy endpoints in pool")

	// ErrUnexpectedProbe wraps panics recovered at the probe boundary.
	ErrUnexpectedProbe = errors.New("unexpected probe failure")
)

// MissingCredentialError names the placeholder that could not be resolved.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential %q", e.Name)
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// UnexpectedProbeError is recorded when a probe panics.
type UnexpectedProbeError struct {
	CorrelationID string
	Value         interface{}
}

func (e *UnexpectedProbeError) Error() string {
	return fmt.Sprintf("unexpected probe failure: %v (correlation_id: %s)", e.Value, e.CorrelationID)
}

func (e *UnexpectedProbeError) Is(target error) bool {
	return target == ErrUnexpectedProbe
}
