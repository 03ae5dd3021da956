package invocation

import "errors"

// ErrInvalidRecordingOrder is returned when an encoder or decoder method
// is invoked out of the mandated sequence (generics, then arguments, then
// return type, then error type, then done), or after recording has
// already been finalized.
var ErrInvalidRecordingOrder = errors.New("invocation: invalid recording order")

// ErrMissingArgument is returned when decoding is attempted past the
// last recorded argument.
var ErrMissingArgument = errors.New("invocation: missing argument")

// ErrNotFinalized is returned by Finalize when doneRecording has not yet
// been called.
var ErrNotFinalized = errors.New("invocation: encoder not finalized")

// ErrAlreadyRecorded is returned when recordReturnType or recordErrorType
// is invoked a second time for the same encoder.
var ErrAlreadyRecorded = errors.New("invocation: value already recorded")
