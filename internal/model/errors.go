package model

import "errors"

// Error taxonomy surfaced by the service layer. Handlers map these to HTTP
// statuses; everything else is an internal error.
var (
	// ErrInvalidConfig means the exam configuration is out of bounds. Rejected
	// before any external call.
	ErrInvalidConfig = errors.New("invalid exam configuration")

	// ErrExtractionFailed means the document yielded no usable text.
	ErrExtractionFailed = errors.New("could not extract text from document")

	// ErrGeneratorUnavailable means the question generator call failed at the
	// transport level.
	ErrGeneratorUnavailable = errors.New("question generator unavailable")

	// ErrGenerationInvalid means the generator returned schema-nonconformant
	// output. The whole exam is discarded; nothing is persisted.
	ErrGenerationInvalid = errors.New("generator returned invalid questions")

	// ErrNotFound covers both a missing entity and an entity owned by another
	// user, so existence is never leaked.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken means the registration email is already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
