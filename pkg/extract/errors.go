// pkg/extract/errors.go
package extract

import "fmt"

// FetchError reports a failed source request. StatusCode is zero when no
// HTTP response was obtained or the body could not be decoded.
type FetchError struct {
	URL        string
	StatusCode int
	Body       string // truncated response body, for diagnostics
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.StatusCode != 200:
		if e.Body != "" {
			return fmt.Sprintf("failed to fetch data: status code %d from %s: %s", e.StatusCode, e.URL, e.Body)
		}
		return fmt.Sprintf("failed to fetch data: status code %d from %s", e.StatusCode, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("failed to fetch data from %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("failed to fetch data from %s", e.URL)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
