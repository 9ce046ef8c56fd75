package types

import "errors"

// Sentinel errors surfaced across compartment boundaries.
var (
	ErrCompartmentNotFound = errors.New("staging compartment not found")
	ErrCompartmentExists   = errors.New("staging compartment already exists")
	ErrOperationNotAllowed = errors.New("operation not allowed by the analytic SQL gate")
	ErrCorruptChunkSet     = errors.New("chunk set is corrupt: chunk count does not match metadata")
	ErrMissingChunkContent = errors.New("chunk content could not be resolved")
	ErrStagingFailure      = errors.New("staging failed")
)

// Configuration errors returned by Config.Validate.
var (
	ErrStorageRootEmpty = errors.New("storage root must not be empty")
)
