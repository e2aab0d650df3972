// internal/pipeline/errors.go
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/inkwell/internal/agent"
	"github.com/user/inkwell/internal/recovery"
)

// ValidationError means a recovered draft failed schema validation. Fatal.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("generated content failed validation: %s", strings.Join(e.Issues, "; "))
}

// FailureKind groups pipeline failures for operator-facing reporting, so that
// transient outages can be told apart from producer-format drift.
type FailureKind int

const (
	FailureInternal FailureKind = iota
	FailureUpstream             // agent unreachable or persistently erroring
	FailureUnusable             // agent replied, but nothing usable could be recovered
	FailureValidation           // recovered draft failed the schema
)

// Classify maps an error returned by Generate to its failure kind.
func Classify(err error) FailureKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return FailureValidation
	}
	var me *recovery.MalformedResponseError
	if errors.As(err, &me) {
		return FailureUnusable
	}
	var re *agent.MalformedReplyError
	if errors.As(err, &re) {
		return FailureUnusable
	}
	var te *agent.TransportError
	if errors.As(err, &te) {
		return FailureUpstream
	}
	var ue *agent.UpstreamError
	if errors.As(err, &ue) {
		return FailureUpstream
	}
	return FailureInternal
}
