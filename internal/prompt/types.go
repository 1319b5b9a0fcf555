package prompt

import (
	"errors"
	"fmt"
)

// PromptType identifies the task a prompt asks the model to perform.
type PromptType string

const (
	// TypeDescribe asks for a short description of every cluster. It is the
	// default for `grasp explain`.
	TypeDescribe PromptType = "describe"

	// TypeRootCause asks which clusters point at a failure and what caused
	// it.
	TypeRootCause PromptType = "root_cause"

	// TypeQuestion answers a free-form user question about the clusters.
	TypeQuestion PromptType = "question"

	// TypeStructuredOutput asks for a description and then, on the second
	// pass, a JSON object labelling each cluster.
	TypeStructuredOutput PromptType = "structured_output"
)

// ParseType converts a string to a PromptType.
func ParseType(s string) (PromptType, error) {
	switch pt := PromptType(s); pt {
	case TypeDescribe, TypeRootCause, TypeQuestion, TypeStructuredOutput:
		return pt, nil
	case "":
		return TypeDescribe, nil
	default:
		return "", fmt.Errorf("invalid prompt type %q (valid: describe, root_cause, question, structured_output)", s)
	}
}

// BuildOptions holds the context a prompt is built from.
type BuildOptions struct {
	// Summary is the report text produced by Summarize. Required.
	Summary string

	// Question is required for TypeQuestion.
	Question string

	// Files lists the inputs that were clustered. Optional.
	Files []string

	// MaxDistance is the clustering threshold, mentioned to the model when
	// positive.
	MaxDistance float64

	// FirstPassResponse selects the second pass of TypeStructuredOutput.
	FirstPassResponse string
}

// ErrMissingField is returned by Build when a required field is empty.
var ErrMissingField = errors.New("prompt: missing required field")

func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
