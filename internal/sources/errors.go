package sources

import "fmt"

// StatusError reports a non-2xx response from an upstream site so HTTP
// handlers can map the upstream status onto their own.
type StatusError struct {
	Source string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Source, e.Status)
}
