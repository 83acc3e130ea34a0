package insights

import (
	"errors"
	"fmt"
	"io"
)

// FailureKind classifies why a request did not produce a result.
type FailureKind string

const (
	FailureTransport FailureKind = "transport" // request never completed
	FailureStatus    FailureKind = "status"    // non-2xx HTTP status
	FailureDecode    FailureKind = "decode"    // body was not the expected JSON
	FailureGraphQL   FailureKind = "graphql"   // the server reported an errors list
)

// Failure is the only error type returned by Client requests.
type Failure struct {
	Query   QueryKind
	Kind    FailureKind
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("insights %s: %s failure (status %d): %s", f.Query, f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("insights %s: %s failure: %s", f.Query, f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// maxErrorBodySize limits how much of an error response is kept for diagnostics.
const maxErrorBodySize = 64 * 1024

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) > 500 {
		return string(body[:500]) + "..."
	}
	return string(body)
}
