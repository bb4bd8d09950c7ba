package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrBackendUnavailable indicates the backend is unreachable (offline)
	ErrBackendUnavailable = errors.New("backend is unreachable")

	// ErrAuthRequired indicates the request needs a valid session
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotFound indicates the requested entity does not exist remotely
	ErrNotFound = errors.New("entity not found")

	// ErrDownloadFailed indicates a lesson download did not complete
	ErrDownloadFailed = errors.New("download failed")
)
