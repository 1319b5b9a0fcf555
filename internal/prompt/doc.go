// Package prompt builds LLM conversations that explain a clustering report.
//
// A report is first rendered to plain text with [Summarize]; [Build] then
// wraps that text in a system persona and task instruction chosen by
// [PromptType]. The result can be sent to any llm.Provider.
//
//	summary := prompt.Summarize(rep, prompt.SummaryOptions{})
//	messages, err := prompt.Build(prompt.TypeDescribe, prompt.BuildOptions{Summary: summary})
//
// # Two-pass structured output
//
// Small models often fail to produce valid JSON on the first attempt.
// [TypeStructuredOutput] first asks for a free-form description. Calling
// [Build] again with [BuildOptions.FirstPassResponse] set prefills that
// answer as the assistant turn and appends a JSON extraction instruction.
package prompt
