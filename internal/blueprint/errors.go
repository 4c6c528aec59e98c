package blueprint

import "fmt"

// FetchError reports a transport-level failure talking to the template
// service: network error, non-2xx status, or an undecodable body. Callers
// are expected to fall back to a legacy question list rather than fail the
// job.
type FetchError struct {
	Op     string // "request", "status", "decode"
	Status int    // HTTP status when Op == "status"
	Err    error
}

func (e *FetchError) Error() string {
	if e.Op == "status" {
		return fmt.Sprintf("blueprint fetch: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("blueprint fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InvalidError reports a blueprint that decoded fine but violates the
// structural contract (version, units, cardinalities, page size).
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return "invalid blueprint: " + e.Reason
}
