package agent

import "fmt"

// InvalidURLError rejects crawl targets whose scheme is not http or https.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid crawl URL %q: %s", e.URL, e.Reason)
}

// NavigationError is returned when navigation still fails after the retry
// budget is exhausted. It wraps the last underlying failure.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
