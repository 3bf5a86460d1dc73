package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Structural errors, fatal to a run before any remote mutation
	ErrMalformedSnapshot = fmt.Errorf("malformed snapshot")
	ErrCycleDetected     = fmt.Errorf("cycle detected in hierarchy")
	ErrUnresolvedParent  = fmt.Errorf("unresolved target parent")

	// Remote errors. Transient failures are retried with backoff; the
	// rest terminate a single task without blocking its siblings.
	ErrRemoteTransient        = fmt.Errorf("transient remote failure")
	ErrRemoteQuotaExceeded    = fmt.Errorf("remote quota exceeded")
	ErrRemoteNotFound         = fmt.Errorf("remote entry not found")
	ErrRemotePermissionDenied = fmt.Errorf("remote permission denied")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
