package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bimmerbailey/grasp/internal/config"
	"github.com/bimmerbailey/grasp/internal/llm"
	"github.com/bimmerbailey/grasp/internal/llm/ollama"
	"github.com/bimmerbailey/grasp/internal/output"
	"github.com/bimmerbailey/grasp/internal/pipeline"
	"github.com/bimmerbailey/grasp/internal/prompt"
	"github.com/bimmerbailey/grasp/internal/reader"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] PATH...",
	Short: "Cluster log files and ask a local LLM to explain the clusters",
	Long: `Explain clusters the input like the root command, then sends the
clusters with their samples to an Ollama model and streams its answer.

Examples:
  grasp explain /var/log/app.log
  grasp explain --prompt root_cause --mask 'logs/*.log'
  grasp explain -q "why do the workers restart?" worker.log
  grasp explain --prompt structured_output -f json app.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().String("model", "", "Ollama model (default from config, llama3.2)")
	explainCmd.Flags().String("host", "", "Ollama host (default from config or OLLAMA_HOST)")
	explainCmd.Flags().String("prompt", "describe", "task: describe, root_cause, question, structured_output")
	explainCmd.Flags().StringP("question", "q", "", "ask a question about the clusters (implies --prompt question)")
	explainCmd.Flags().Int("max-clusters", 20, "largest clusters sent to the model (0 for all)")

	_ = viper.BindPFlag("llm.ollama.model", explainCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("llm.ollama.host", explainCmd.Flags().Lookup("host"))

	rootCmd.AddCommand(explainCmd)
}

// explainResult is the JSON form of an explanation.
type explainResult struct {
	Files       []string `json:"files"`
	Clusters    int      `json:"clusters"`
	NoisyEvents int      `json:"noisyEvents"`
	TotalEvents int      `json:"totalEvents"`
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Question    string   `json:"question,omitempty"`
	Answer      string   `json:"answer"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	promptName, _ := cmd.Flags().GetString("prompt")
	question, _ := cmd.Flags().GetString("question")
	maxClusters, _ := cmd.Flags().GetInt("max-clusters")

	pt, err := prompt.ParseType(promptName)
	if err != nil {
		return err
	}
	if question != "" {
		pt = prompt.TypeQuestion
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	format, err := output.ParseFormat(s.cfg.Format)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	p, err := pipeline.New(s.cfg.Clustering, s.logger)
	if err != nil {
		return err
	}
	rd := reader.New(s.logger).WithStdin(cmd.InOrStdin())

	rep, files, err := clusterInputs(ctx, args, rd, p)
	if err != nil {
		return err
	}

	buildOpts := prompt.BuildOptions{
		Summary:     prompt.Summarize(rep, prompt.SummaryOptions{MaxClusters: maxClusters}),
		Question:    question,
		Files:       files,
		MaxDistance: s.cfg.Clustering.MaxDistance,
	}
	messages, err := prompt.Build(pt, buildOpts)
	if err != nil {
		return err
	}

	provider, err := ollama.New(ollama.Config{
		Host:  s.cfg.LLM.Ollama.Host,
		Model: s.cfg.LLM.Ollama.Model,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	if err := checkProvider(ctx, provider, s.cfg.LLM); err != nil {
		return err
	}

	chatOpts := &llm.ChatOptions{
		Model:       provider.Model(),
		Temperature: s.cfg.LLM.Temperature,
		MaxTokens:   s.cfg.LLM.MaxTokens,
	}

	var answer string
	if pt == prompt.TypeStructuredOutput {
		answer, err = structuredAnswer(ctx, provider, messages, buildOpts, chatOpts)
	} else {
		answer, err = streamAnswer(ctx, cmd, provider, messages, chatOpts, format)
	}
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.New(cmd.OutOrStdout(), output.FormatJSON).WriteJSON(explainResult{
			Files:       files,
			Clusters:    len(rep.Clusters),
			NoisyEvents: rep.Noise.TotalCount,
			TotalEvents: rep.Total(),
			Model:       chatOpts.Model,
			Prompt:      string(pt),
			Question:    question,
			Answer:      answer,
		})
	}
	if pt == prompt.TypeStructuredOutput {
		fmt.Fprintln(cmd.OutOrStdout(), answer)
	}
	return nil
}

// checkProvider fails early with a hint when Ollama is down or the model has
// not been pulled.
func checkProvider(ctx context.Context, provider *ollama.Provider, cfg config.LLMConfig) error {
	if err := provider.Heartbeat(ctx); err != nil {
		host := cfg.Ollama.Host
		if host == "" {
			host = "the default host"
		}
		return fmt.Errorf("cannot connect to Ollama at %s: %w\n\nStart Ollama with: ollama serve", host, err)
	}

	ok, err := provider.ModelAvailable(ctx, provider.Model())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s\n\nPull it with: ollama pull %s", llm.ErrModelNotFound, provider.Model(), provider.Model())
	}
	return nil
}

// streamAnswer prints the answer as it arrives unless the output is JSON.
func streamAnswer(ctx context.Context, cmd *cobra.Command, provider llm.Provider, messages []llm.Message, opts *llm.ChatOptions, format output.Format) (string, error) {
	stream, err := provider.ChatStream(ctx, messages, opts)
	if err != nil {
		return "", fmt.Errorf("failed to start LLM stream: %w", err)
	}

	out := cmd.OutOrStdout()
	var onChunk func(string)
	if format != output.FormatJSON {
		fmt.Fprintln(out, "=== Explanation ===")
		fmt.Fprintln(out)
		onChunk = func(chunk string) { fmt.Fprint(out, chunk) }
	}

	answer, err := llm.Drain(stream, onChunk)
	if onChunk != nil && answer != "" && !strings.HasSuffix(answer, "\n") {
		fmt.Fprintln(out)
	}
	return answer, err
}

// structuredAnswer sends the first-pass messages, feeds the reply back as
// the assistant turn and returns the JSON text of the second pass.
func structuredAnswer(ctx context.Context, provider llm.Provider, messages []llm.Message, buildOpts prompt.BuildOptions, opts *llm.ChatOptions) (string, error) {
	first, err := provider.Chat(ctx, messages, opts)
	if err != nil {
		return "", err
	}

	buildOpts.FirstPassResponse = first.Content
	second, err := prompt.Build(prompt.TypeStructuredOutput, buildOpts)
	if err != nil {
		return "", err
	}

	resp, err := provider.Chat(ctx, second, opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
