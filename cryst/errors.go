package cryst

import "errors"

// Sentinel errors for dataset operations.
var (
	// ErrScalerNotSet indicates indexed access on a labelled dataset before a
	// property scaler was fit and attached.
	ErrScalerNotSet = errors.New("cryst: scaler not attached, fit and attach a scaler before indexed access")
	// ErrIndexOutOfRange indicates a sample index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("cryst: sample index out of range")
	// ErrMalformedRecord indicates a cached record whose graph arrays violate
	// the packing invariants (wrong arity or inconsistent atom/bond counts).
	ErrMalformedRecord = errors.New("cryst: malformed cached record")
	// ErrPropMissing indicates a record does not carry the requested property.
	ErrPropMissing = errors.New("cryst: property not present on record")
	// ErrUnknownGraphMethod indicates an unrecognized graph construction method.
	ErrUnknownGraphMethod = errors.New("cryst: unknown graph construction method")
	// ErrUnknownLatticeScale indicates an unrecognized lattice scaling method.
	ErrUnknownLatticeScale = errors.New("cryst: unknown lattice scale method")
	// ErrNotFitted indicates a transform on a scaler with no fitted parameters.
	ErrNotFitted = errors.New("cryst: scaler has no fitted parameters")
	// ErrEmptyFit indicates a scaler fit over an empty value collection.
	ErrEmptyFit = errors.New("cryst: cannot fit scaler over an empty value collection")
	// ErrDimensionMismatch indicates a value whose dimension does not match
	// the fitted scaler or its fitting collection.
	ErrDimensionMismatch = errors.New("cryst: value dimension mismatch")
	// ErrEmptyBatch indicates a collate call over zero samples.
	ErrEmptyBatch = errors.New("cryst: cannot collate an empty sample list")
)
