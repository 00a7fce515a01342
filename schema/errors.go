package schema

import "errors"

// Sentinel errors shared across packages. Wrap them with fmt.Errorf("%w") to add context.
var (
	// ErrRetrieval marks a failed or malformed response from the open-data endpoint.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrInvalidSpec marks an aggregation spec that cannot be applied to the records.
	ErrInvalidSpec = errors.New("invalid aggregation spec")

	// ErrEmptyGroup marks a group with a zero denominator under the raise policy.
	ErrEmptyGroup = errors.New("empty group")

	// ErrPublish marks a failed call to the charting service.
	ErrPublish = errors.New("publish failed")

	// ErrMissingCredential marks a missing charting service token.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnknownJob marks a job name that is not configured.
	ErrUnknownJob = errors.New("unknown job")
)
