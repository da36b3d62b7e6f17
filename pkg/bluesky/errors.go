package bluesky

import "fmt"

// AuthError is returned when the upstream rejects the credentials or can't be reached.
// Status and Body are for server-side logs only.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError is returned when the author feed can't be retrieved after authentication
type FetchError struct {
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch author feed failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch author feed failed (status %d): %s", e.Status, e.Body)
}

func (e *FetchError) Unwrap() error { return e.Err }
