package prompt

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/grasp/internal/llm"
)

// Build constructs the messages for pt. The slice always starts with a
// system message. ErrMissingField is returned when Summary is empty, or
// when Question is empty for TypeQuestion.
func Build(pt PromptType, opts BuildOptions) ([]llm.Message, error) {
	if opts.Summary == "" {
		return nil, missingField("Summary")
	}

	switch pt {
	case TypeQuestion:
		return buildQuestion(opts)
	case TypeStructuredOutput:
		return buildStructuredOutput(opts), nil
	default:
		return []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt(pt)},
			{Role: llm.RoleUser, Content: userMessage(pt, opts)},
		}, nil
	}
}

func userMessage(pt PromptType, opts BuildOptions) string {
	var sb strings.Builder

	switch pt {
	case TypeRootCause:
		sb.WriteString("Find the root cause of the failures in the following clustered logs:\n\n")
	default:
		sb.WriteString("Describe the clusters in the following clustered logs:\n\n")
	}

	appendContext(&sb, opts)
	return sb.String()
}

func buildQuestion(opts BuildOptions) ([]llm.Message, error) {
	if opts.Question == "" {
		return nil, missingField("Question")
	}

	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(opts.Question)
	sb.WriteString("\n\n")
	appendContext(&sb, opts)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(TypeQuestion)},
		{Role: llm.RoleUser, Content: sb.String()},
	}, nil
}

// buildStructuredOutput returns [system, user] on the first pass and
// [system, user, assistant, user] once FirstPassResponse is set.
func buildStructuredOutput(opts BuildOptions) []llm.Message {
	var first strings.Builder
	first.WriteString("Describe the clusters in the following clustered logs:\n\n")
	appendContext(&first, opts)

	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(TypeStructuredOutput)},
		{Role: llm.RoleUser, Content: first.String()},
	}
	if opts.FirstPassResponse == "" {
		return msgs
	}

	return append(msgs,
		llm.Message{Role: llm.RoleAssistant, Content: opts.FirstPassResponse},
		llm.Message{Role: llm.RoleUser, Content: "Now convert your description into the JSON schema from the system prompt. " +
			"Output ONLY the JSON object, no markdown and no explanation."},
	)
}

// appendContext writes the source files, clustering threshold and report
// summary into sb.
func appendContext(sb *strings.Builder, opts BuildOptions) {
	switch {
	case len(opts.Files) == 1:
		fmt.Fprintf(sb, "Source file: %s\n", opts.Files[0])
	case len(opts.Files) > 1:
		fmt.Fprintf(sb, "Source files (%d): %s\n", len(opts.Files), strings.Join(opts.Files, ", "))
	}
	if opts.MaxDistance > 0 {
		fmt.Fprintf(sb, "Lines were grouped when their token distance was at most %g.\n", opts.MaxDistance)
	}
	if len(opts.Files) > 0 || opts.MaxDistance > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString(opts.Summary)
	sb.WriteString("\n")
}
