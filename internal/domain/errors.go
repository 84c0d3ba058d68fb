package domain

import "errors"

// Startup and serving errors. Callers classify with errors.Is.
var (
	// ErrConfiguration indicates missing credentials. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrBackendUnavailable indicates the similarity backend is unreachable
	// or misconfigured. The twin falls back to keyword rules.
	ErrBackendUnavailable = errors.New("similarity backend unavailable")

	// ErrWrongService indicates the configured URL points at a service that
	// is not a vector index.
	ErrWrongService = errors.New("wrong service type")

	// ErrIngestion indicates chunks could not be uploaded to the backend.
	ErrIngestion = errors.New("ingestion failed")

	// ErrProfileLoad indicates the profile document is missing or unparseable.
	ErrProfileLoad = errors.New("profile load failed")

	// ErrEmptyProfile indicates no section of the profile produced a chunk.
	ErrEmptyProfile = errors.New("profile produced no chunks")

	// ErrGeneration indicates the language model call failed.
	ErrGeneration = errors.New("generation failed")

	// ErrNoRelevantInfo indicates similarity search found nothing usable.
	ErrNoRelevantInfo = errors.New("no relevant information")

	// ErrNoExtractableContent indicates hits were found but none carried content.
	ErrNoExtractableContent = errors.New("no extractable content")

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrTerminated indicates the twin has been closed.
	ErrTerminated = errors.New("twin terminated")
)
