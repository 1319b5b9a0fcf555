package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bimmerbailey/grasp/internal/config"
	"github.com/bimmerbailey/grasp/internal/logging"
	"github.com/bimmerbailey/grasp/internal/output"
	"github.com/bimmerbailey/grasp/internal/pipeline"
	"github.com/bimmerbailey/grasp/internal/reader"
	"github.com/bimmerbailey/grasp/internal/report"
	"github.com/bimmerbailey/grasp/internal/telemetry"
	"github.com/bimmerbailey/grasp/internal/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "grasp [flags] PATH...",
	Short: "Group similar log lines into clusters",
	Long: `Grasp reads log files, groups similar lines into clusters and prints
a short report with a few samples per cluster, so a large log can be
reviewed by pattern rather than line by line.

Paths may be files, directories, glob patterns ('dir/*', 'dir/**/*.log')
or '-' for standard input. Gzip-compressed files (.gz) are read
transparently.

Examples:
  grasp /var/log/app.log
  grasp --max-distance 1.5 --mask 'logs/**/*.log'
  grasp -f json /var/log/syslog.1.gz
  grasp --watch --show-patterns /var/log/app.log`,
	Args:          cobra.MinimumNArgs(1),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCluster,
}

// Execute is called by main.main(). It runs the root command and prints
// any error as "Error: <message>" on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetVersionTemplate("grasp {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.grasp.yaml)")
	flags.StringP("format", "f", "pretty", "output format (pretty, json, table)")
	flags.String("color", "auto", "colorize pretty output (auto, always, never)")
	flags.BoolP("debug", "d", false, "write debug diagnostics to stderr")
	flags.Bool("trace", false, "write OpenTelemetry spans and metrics to stderr")

	flags.Float64("max-distance", config.DefaultMaxDistance, "maximum L1 distance between lines of a cluster")
	flags.Int("max-samples-per-cluster", config.DefaultMaxSamplesPerCluster, "samples kept per cluster")
	flags.Int("max-noisy-samples", 0, "noisy samples kept (default: max-samples-per-cluster)")
	flags.IntSlice("ngram", nil, "also index word n-grams of this size (repeatable)")
	flags.Bool("mask", false, "replace IPs, UUIDs, timestamps and similar values before clustering")
	flags.StringSlice("mask-patterns", nil, "mask only these patterns (implies --mask)")
	flags.Bool("normalize", false, "apply Unicode NFC normalization before lower-casing")
	flags.Int("workers", 0, "parallel workers (default: number of CPUs)")

	rootCmd.Flags().Bool("show-patterns", false, "print a wildcard pattern for each cluster")
	rootCmd.Flags().Bool("watch", false, "re-run when the input files change")
	rootCmd.Flags().String("debounce", "500ms", "quiet period after a change before re-running")

	bind := map[string]string{
		"format":                             "format",
		"color":                              "color",
		"debug":                              "debug",
		"trace":                              "trace",
		"clustering.max_distance":            "max-distance",
		"clustering.max_samples_per_cluster": "max-samples-per-cluster",
		"clustering.max_noisy_samples":       "max-noisy-samples",
		"clustering.ngrams":                  "ngram",
		"clustering.mask":                    "mask",
		"clustering.mask_patterns":           "mask-patterns",
		"clustering.normalize":               "normalize",
		"clustering.workers":                 "workers",
	}
	for key, name := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
	_ = viper.BindPFlag("show_patterns", rootCmd.Flags().Lookup("show-patterns"))
	_ = viper.BindPFlag("watch.enabled", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("watch.debounce", rootCmd.Flags().Lookup("debounce"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".grasp")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GRASP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("debug") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		os.Exit(1)
	}
}

// session holds what every command needs for one invocation.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	shutdown telemetry.ShutdownFunc
}

// newSession loads and validates the configuration, and sets up logging and
// telemetry. close must be called when the command finishes.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if len(cfg.Clustering.MaskPatterns) > 0 {
		cfg.Clustering.Mask = true
	}

	machineOutput := strings.EqualFold(cfg.Format, string(output.FormatJSON))
	logger := logging.New(cmd.ErrOrStderr(), cfg.Debug, machineOutput)

	shutdown, err := telemetry.Setup(commandContext(cmd), cmd.ErrOrStderr(), cfg.Trace, version)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	return &session{cfg: cfg, logger: logger, shutdown: shutdown}, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.shutdown(ctx); err != nil {
		s.logger.Warn("failed to flush telemetry", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runCluster(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	format, err := output.ParseFormat(s.cfg.Format)
	if err != nil {
		return err
	}
	colorMode, err := output.ParseColorMode(s.cfg.Color)
	if err != nil {
		return err
	}

	p, err := pipeline.New(s.cfg.Clustering, s.logger)
	if err != nil {
		return err
	}
	rd := reader.New(s.logger).WithStdin(cmd.InOrStdin())
	writer := output.New(cmd.OutOrStdout(), format,
		output.WithColor(colorMode),
		output.WithPatterns(viper.GetBool("show_patterns")),
	)

	run := func(ctx context.Context) error {
		rep, _, err := clusterInputs(ctx, args, rd, p)
		if err != nil {
			return err
		}
		return writer.WriteReport(rep)
	}

	ctx := commandContext(cmd)
	if !s.cfg.Watch.Enabled {
		return run(ctx)
	}

	for _, arg := range args {
		if arg == reader.StdinPath {
			return fmt.Errorf("--watch cannot be used with standard input")
		}
	}
	debounce, err := s.cfg.Watch.DebounceDuration()
	if err != nil {
		return err
	}

	runs := 0
	w := watch.New(watch.Options{
		Patterns: args,
		Debounce: debounce,
		Logger:   s.logger,
		Run: func(ctx context.Context) error {
			if runs > 0 {
				separator(cmd.ErrOrStderr(), time.Now())
			}
			runs++
			return run(ctx)
		},
	})
	return w.Run(ctx)
}

func separator(w io.Writer, now time.Time) {
	fmt.Fprintf(w, "\n==> Input changed, re-clustered at %s <==\n\n", now.Format(time.TimeOnly))
}

// clusterInputs resolves args to files, reads them and clusters the lines.
// It returns the report together with the files that were considered.
func clusterInputs(ctx context.Context, args []string, rd *reader.Reader, p *pipeline.Pipeline) (*report.Report, []string, error) {
	files, err := resolveInputs(args)
	if err != nil {
		return nil, nil, err
	}

	lines, err := rd.ReadFiles(ctx, files)
	if err != nil {
		return nil, files, err
	}

	rep, err := p.Run(ctx, lines)
	if err != nil {
		return nil, files, err
	}
	return rep, files, nil
}

// resolveInputs expands every argument in order. "-" is kept as standard
// input; files matched by more than one argument are read once.
func resolveInputs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	for _, arg := range args {
		if arg == reader.StdinPath {
			files = append(files, arg)
			continue
		}

		matches, err := config.ExpandGlobs([]string{arg})
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	if len(files) == 0 {
		return nil, reader.ErrNoReadableFiles
	}
	return files, nil
}
