package services

import "errors"

// Outcome sentinels surfaced to handlers. Anything else returned by a
// service is an internal fault and must not leak its cause to clients.
var (
	// ErrNotFound covers unknown app, release, or file alike so callers
	// cannot probe which of them exists.
	ErrNotFound = errors.New("not found")
	// ErrKeyRequired: the release is private and no credential was presented.
	ErrKeyRequired = errors.New("api key required")
	// ErrKeyInvalid: a credential was presented but no live key matches.
	ErrKeyInvalid = errors.New("invalid or expired api key")
	// ErrNotEligible: the client is outside the release's staged-rollout
	// percentage. Maps to an empty success, never an error status.
	ErrNotEligible = errors.New("client not eligible for staged rollout")
)
