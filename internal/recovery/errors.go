// internal/recovery/errors.go
package recovery

import "fmt"

// MalformedResponseError means the recovery engine exhausted its strategy
// chain without producing a usable draft. Always fatal; the engine never
// retries internally.
type MalformedResponseError struct {
	Stage  string // "extract" or "parse"
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("agent returned unusable content (%s): %s", e.Stage, e.Reason)
}
