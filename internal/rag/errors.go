package rag

import "errors"

var (
	// ErrStorageNotFound is returned when the chunk file does not exist.
	ErrStorageNotFound = errors.New("chunk storage not found")

	// ErrMalformedData is returned when the chunk file cannot be parsed into
	// a consistent chunk collection.
	ErrMalformedData = errors.New("malformed chunk data")

	// ErrDimensionMismatch is returned when two vectors that must be compared
	// have different lengths. It usually means the query was embedded with a
	// different model than the stored chunks.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
