package catalog

import "fmt"

// LoadError reports a catalog resource that could not be fetched: a transport
// fault, a non-2xx status, an open circuit breaker or an unreadable body.
type LoadError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to load %s: unexpected status %d", e.Resource, e.StatusCode)
	}
	return fmt.Sprintf("failed to load %s: %v", e.Resource, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
