package prompt_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/bimmerbailey/grasp/internal/prompt"
	"github.com/bimmerbailey/grasp/internal/report"
)

const testSummary = `Total events: 64, clusters: 2, noisy events: 4

=== Cluster 0 (42 events) ===
Pattern: connection to <IPV4> refused
Examples:
  - L#1: connection to 10.0.0.1 refused

=== Cluster 1 (18 events) ===
Examples:
  - L#2: retry attempt 1 of 3`

func testReport() *report.Report {
	return &report.Report{
		Clusters: []*report.ClusterRecord{
			{ID: 0, TotalCount: 2, Samples: []report.LogEvent{{LineNumber: 1, Text: "user alice logged in"}, {LineNumber: 3, Text: "user bob logged in"}}, Pattern: "user <*> logged in"},
			{ID: 1, TotalCount: 7, Samples: []report.LogEvent{{LineNumber: 2, Text: "disk full"}}},
			{ID: 2, TotalCount: 2, Samples: []report.LogEvent{{LineNumber: 5, Text: "cache miss"}}},
		},
		Noise: &report.ClusterRecord{ID: report.NoiseID, TotalCount: 3, Samples: []report.LogEvent{{LineNumber: 4, Text: "something odd"}}},
	}
}

// TestBuild_RequiresSummary verifies that ErrMissingField is returned when
// Summary is empty, for every PromptType.
func TestBuild_RequiresSummary(t *testing.T) {
	types := []prompt.PromptType{
		prompt.TypeDescribe,
		prompt.TypeRootCause,
		prompt.TypeQuestion,
		prompt.TypeStructuredOutput,
	}

	for _, pt := range types {
		t.Run(string(pt), func(t *testing.T) {
			_, err := prompt.Build(pt, prompt.BuildOptions{Question: "does not matter"})
			if !errors.Is(err, prompt.ErrMissingField) {
				t.Errorf("expected ErrMissingField, got %v", err)
			}
		})
	}
}

func TestBuild_QuestionRequired(t *testing.T) {
	_, err := prompt.Build(prompt.TypeQuestion, prompt.BuildOptions{Summary: testSummary})
	if !errors.Is(err, prompt.ErrMissingField) {
		t.Errorf("expected ErrMissingField for missing Question, got %v", err)
	}
}

// TestBuild_MessageStructure verifies message count and roles for each type.
func TestBuild_MessageStructure(t *testing.T) {
	tests := []struct {
		name      string
		pt        prompt.PromptType
		opts      prompt.BuildOptions
		wantRoles []string
	}{
		{
			name:      "describe",
			pt:        prompt.TypeDescribe,
			opts:      prompt.BuildOptions{Summary: testSummary},
			wantRoles: []string{"system", "user"},
		},
		{
			name:      "root_cause",
			pt:        prompt.TypeRootCause,
			opts:      prompt.BuildOptions{Summary: testSummary},
			wantRoles: []string{"system", "user"},
		},
		{
			name:      "question",
			pt:        prompt.TypeQuestion,
			opts:      prompt.BuildOptions{Summary: testSummary, Question: "why is the database refusing connections?"},
			wantRoles: []string{"system", "user"},
		},
		{
			name:      "structured_output_first_pass",
			pt:        prompt.TypeStructuredOutput,
			opts:      prompt.BuildOptions{Summary: testSummary},
			wantRoles: []string{"system", "user"},
		},
		{
			name:      "structured_output_second_pass",
			pt:        prompt.TypeStructuredOutput,
			opts:      prompt.BuildOptions{Summary: testSummary, FirstPassResponse: "Cluster 0 records refused connections."},
			wantRoles: []string{"system", "user", "assistant", "user"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msgs, err := prompt.Build(tc.pt, tc.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(msgs) != len(tc.wantRoles) {
				t.Fatalf("message count: got %d, want %d", len(msgs), len(tc.wantRoles))
			}
			for i, role := range tc.wantRoles {
				if msgs[i].Role != role {
					t.Errorf("msgs[%d].Role = %q, want %q", i, msgs[i].Role, role)
				}
			}
			if !strings.Contains(msgs[1].Content, "=== Cluster 0 (42 events) ===") {
				t.Errorf("user message does not contain the summary:\n%s", msgs[1].Content)
			}
		})
	}
}

// TestBuild_SystemPromptDistinctPerType checks that different PromptTypes
// produce different system prompts.
func TestBuild_SystemPromptDistinctPerType(t *testing.T) {
	opts := prompt.BuildOptions{Summary: testSummary, Question: "what failed?"}
	seen := make(map[string]prompt.PromptType)

	for _, pt := range []prompt.PromptType{prompt.TypeDescribe, prompt.TypeRootCause, prompt.TypeQuestion, prompt.TypeStructuredOutput} {
		msgs, err := prompt.Build(pt, opts)
		if err != nil {
			t.Fatalf("Build(%s) error: %v", pt, err)
		}
		if other, dup := seen[msgs[0].Content]; dup {
			t.Errorf("%s and %s share a system prompt", pt, other)
		}
		seen[msgs[0].Content] = pt
	}
}

func TestBuild_Context(t *testing.T) {
	msgs, err := prompt.Build(prompt.TypeDescribe, prompt.BuildOptions{
		Summary:     testSummary,
		Files:       []string{"app.log", "auth.log", "db.log"},
		MaxDistance: 2.1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := msgs[1].Content
	for _, needle := range []string{"Source files (3)", "app.log", "auth.log", "db.log", "2.1"} {
		if !strings.Contains(user, needle) {
			t.Errorf("user message does not contain %q\ncontent:\n%s", needle, user)
		}
	}
}

// TestBuild_QuestionPlacement verifies the question appears before the
// report summary.
func TestBuild_QuestionPlacement(t *testing.T) {
	q := "why did authentication fail?"
	msgs, err := prompt.Build(prompt.TypeQuestion, prompt.BuildOptions{Summary: testSummary, Question: q})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := msgs[1].Content
	qIdx := strings.Index(user, q)
	sIdx := strings.Index(user, "Total events")
	if qIdx < 0 || sIdx < 0 {
		t.Fatalf("question or summary missing from user message:\n%s", user)
	}
	if qIdx > sIdx {
		t.Error("question should appear before the summary")
	}
}

func TestBuild_StructuredOutput_SecondPass(t *testing.T) {
	first := "Cluster 0 records refused database connections."
	msgs, err := prompt.Build(prompt.TypeStructuredOutput, prompt.BuildOptions{Summary: testSummary, FirstPassResponse: first})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msgs[2].Content != first {
		t.Errorf("assistant prefill = %q, want %q", msgs[2].Content, first)
	}
	if !strings.Contains(msgs[3].Content, "JSON") {
		t.Errorf("final user message should reference JSON, got: %q", msgs[3].Content)
	}
	if !strings.Contains(msgs[0].Content, `"clusters"`) {
		t.Error("structured output system prompt should describe the clusters schema")
	}
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]prompt.PromptType{
		"":                  prompt.TypeDescribe,
		"describe":          prompt.TypeDescribe,
		"root_cause":        prompt.TypeRootCause,
		"question":          prompt.TypeQuestion,
		"structured_output": prompt.TypeStructuredOutput,
	} {
		got, err := prompt.ParseType(in)
		if err != nil || got != want {
			t.Errorf("ParseType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := prompt.ParseType("poem"); err == nil {
		t.Error("ParseType(poem) should fail")
	}
}

func TestSummarize(t *testing.T) {
	got := prompt.Summarize(testReport(), prompt.SummaryOptions{})

	want := `Total events: 14, clusters: 3, noisy events: 3

=== Cluster 1 (7 events) ===
Examples:
  - L#2: disk full
  (6 more)

=== Cluster 0 (2 events) ===
Pattern: user <*> logged in
Examples:
  - L#1: user alice logged in
  - L#3: user bob logged in

=== Cluster 2 (2 events) ===
Examples:
  - L#5: cache miss
  (1 more)

=== Noise (3 events) ===
Examples:
  - L#4: something odd
  (2 more)`

	if got != want {
		t.Errorf("Summarize() mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestSummarize_Limits(t *testing.T) {
	rep := testReport()
	rep.Clusters[1].Samples[0].Text = strings.Repeat("x", 50)

	got := prompt.Summarize(rep, prompt.SummaryOptions{MaxClusters: 1, MaxLineLength: 10})

	if !strings.Contains(got, "L#2: xxxxxxxxxx...") {
		t.Errorf("long sample was not clipped:\n%s", got)
	}
	if strings.Contains(got, "Cluster 0") || strings.Contains(got, "Cluster 2") {
		t.Errorf("only the largest cluster should be included:\n%s", got)
	}
	if !strings.Contains(got, "(2 smaller clusters omitted)") {
		t.Errorf("missing omitted clusters note:\n%s", got)
	}
}
