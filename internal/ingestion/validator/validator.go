// Package validator provides input validation for evaluation requests. It
// enforces text size constraints, checks metric specs, and returns per-field
// error details.
package validator

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/parser"
)

const (
	maxCandidateLength = 1048576
	maxReferenceLength = 1048576
	maxReferences      = 64
	maxMetrics         = 16
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateEvalRequest checks that the request carries at least one reference
// and one well-formed metric spec, and that text sizes are within bounds.
// An empty candidate is allowed; it scores zero against any reference.
func ValidateEvalRequest(req *ingestion.EvalRequest) error {
	errs := make(map[string]string)

	if len(req.Candidate) > maxCandidateLength {
		errs["candidate"] = fmt.Sprintf("candidate must be at most %d bytes", maxCandidateLength)
	}
	if len(req.References) == 0 {
		errs["references"] = "at least one reference is required"
	} else if len(req.References) > maxReferences {
		errs["references"] = fmt.Sprintf("at most %d references are allowed", maxReferences)
	} else {
		for i, ref := range req.References {
			if len(ref) > maxReferenceLength {
				errs["references"] = fmt.Sprintf("reference %d must be at most %d bytes", i, maxReferenceLength)
				break
			}
		}
	}
	if len(req.Metrics) == 0 {
		errs["metrics"] = "at least one metric is required"
	} else if len(req.Metrics) > maxMetrics {
		errs["metrics"] = fmt.Sprintf("at most %d metrics are allowed", maxMetrics)
	} else {
		for _, spec := range req.Metrics {
			if _, err := parser.Parse(spec); err != nil {
				errs["metrics"] = fmt.Sprintf("invalid metric spec %q", spec)
				break
			}
		}
	}
	if req.IdempotencyKey != "" && len(req.IdempotencyKey) > 255 {
		errs["idempotency_key"] = "idempotency key must be at most 255 characters"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
