package api

import "fmt"

// NetworkError indicates a transport-level failure talking to the research
// service. Terminal for the view that triggered it; no automatic retry.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError indicates the service has no workflow for the given id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("research %s not found", e.ID)
}

// RemoteRejectionError indicates the service answered a request with a
// non-success status. The body is kept for user-facing display.
type RemoteRejectionError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteRejectionError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s rejected with status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s rejected with status %d", e.Op, e.StatusCode)
}
