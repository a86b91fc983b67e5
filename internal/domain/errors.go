package domain

import "errors"

var (
	// ErrUnsupported marks a request with no implemented generation path.
	// Items hitting it are recorded as skips, not failures.
	ErrUnsupported = errors.New("unsupported asset type")

	ErrProviderFailure = errors.New("provider failure")
	ErrNoArtifact      = errors.New("no artifact produced")
	ErrTimeout         = errors.New("generation timed out")
)
