package domain

import "errors"

var (
	// ErrUnsupportedModelType is returned when a model's type has no
	// computation logic (includes data_driven, which is declared but not
	// implemented). Never silently defaulted: a wrong model corrupts
	// attribution totals.
	ErrUnsupportedModelType = errors.New("unsupported attribution model type")

	// ErrInvalidModelParameters is returned when a model's parameters are
	// internally inconsistent with its type
	ErrInvalidModelParameters = errors.New("invalid attribution model parameters")

	// ErrDataIntegrity is returned when an input record violates a basic
	// invariant (negative conversion value, missing timestamp). Batch runs
	// skip the offending record instead of aborting.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrConversionNotFound is returned when a conversion event is not found
	ErrConversionNotFound = errors.New("conversion not found")

	// ErrModelNotFound is returned when an attribution model is not found
	ErrModelNotFound = errors.New("attribution model not found")

	// ErrRecomputeConflict is returned when two recomputations for the same
	// (conversion, model) pair collide; callers retry with backoff.
	ErrRecomputeConflict = errors.New("concurrent recompute conflict")
)
