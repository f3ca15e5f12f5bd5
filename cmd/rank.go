package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/ai/gemini"
	"github.com/spigell/cv-ranker/internal/ai/rulebased"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/metrics"
	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/pipeline"
	"github.com/spigell/cv-ranker/internal/secrets"
	"github.com/spigell/cv-ranker/internal/skills"
	"github.com/spigell/cv-ranker/internal/store"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	providerGemini    = "gemini"
	providerRuleBased = "rulebased"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidate resumes against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("requirement", "r", "", "file with the job description")
	rankCmd.Flags().StringSliceP("candidates", "c", nil, "resume files or directories with resumes")
	rankCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before ranking")
	rankCmd.Flags().StringP("output", "o", outputTable, "result format: table or json")
	rankCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address while ranking")
	rankCmd.Flags().StringToString("weights", nil, "per-job scoring weights, e.g. skills=0.5,experience=0.3")
	rankCmd.Flags().Float64("min-total-score", 0, "per-job minimum total score")
	rankCmd.Flags().Float64("min-success-ratio", 0, "per-job share of candidates that must be parsed")

	_ = rankCmd.MarkFlagRequired("requirement")
	_ = rankCmd.MarkFlagRequired("candidates")

	viper.BindPFlag("metrics-addr", rankCmd.Flags().Lookup("metrics-addr"))
}

func rank(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-ranker", zap.String("version", version))

	output, _ := cmd.Flags().GetString("output")
	if output != outputTable && output != outputJSON {
		logger.Fatal("unsupported output format", zap.String("output", output))
	}

	requirementFile, _ := cmd.Flags().GetString("requirement")
	requirement, err := os.ReadFile(requirementFile)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	paths, _ := cmd.Flags().GetStringSlice("candidates")
	docs, err := loadDocuments(paths)
	if err != nil {
		logger.Fatal("reading candidate documents", zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidate documents found"))
		return
	}
	logger.Info("loaded candidate documents", zap.Int("count", len(docs)))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)
	if addr := viper.GetString("metrics-addr"); addr != "" {
		shutdown := serveMetrics(addr, registry, logger)
		defer shutdown()
	}

	sink, closeStore, err := newStore(ctx, config.Store, logger)
	if err != nil {
		logger.Fatal("connecting to the result store", zap.Error(err))
	}
	defer closeStore()

	table := skills.Default()
	if config.SkillsFile != "" {
		table, err = skills.Load(config.SkillsFile)
		if err != nil {
			logger.Fatal("loading the skills table", zap.Error(err))
		}
	}

	deps, err := newAdapters(ctx, config.AI, table, logger)
	if err != nil {
		logger.Fatal("building ai adapters", zap.Error(err))
	}
	deps.Skills = table
	deps.Store = sink
	deps.Metrics = m
	deps.Logger = logger

	orchestrator, err := pipeline.New(config.Pipeline, deps)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	if flag := cmd.Flag("yes"); flag != nil && flag.Value.String() == "false" {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Rank %d candidates", len(docs)),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	jobID, err := orchestrator.Submit(ctx, pipeline.Submission{
		RequirementText: string(requirement),
		Documents:       docs,
		Overrides:       overridesFromFlags(cmd),
	})
	if err != nil {
		logger.Fatal("submitting the job", zap.Error(err))
	}

	snapshot, err := orchestrator.Wait(ctx, jobID)
	if err != nil {
		logger.Warn("interrupted, cancelling the job", zap.String("job_id", jobID))
		_ = orchestrator.Cancel(jobID)

		waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if snapshot, err = orchestrator.Wait(waitCtx, jobID); err != nil {
			logger.Fatal("waiting for the cancelled job", zap.Error(err))
		}
	}

	if err := printSnapshot(os.Stdout, snapshot, output); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}

	if snapshot.State == model.StateFailed {
		logger.Fatal("job failed", zap.String("job_id", snapshot.ID), zap.String("reason", snapshot.Reason))
	}
}

// loadDocuments reads every regular file named directly or found at the top
// level of a named directory. Hidden files are skipped.
func loadDocuments(paths []string) ([]model.Document, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}

	docs := make([]model.Document, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		id := filepath.Clean(file)
		if seen[id] {
			continue
		}
		seen[id] = true

		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, model.Document{
			ID:      id,
			Name:    strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)),
			Content: string(content),
		})
	}
	return docs, nil
}

func overridesFromFlags(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)
	if flag := cmd.Flag("weights"); flag != nil && flag.Changed {
		weights, _ := cmd.Flags().GetStringToString("weights")
		raw := make(map[string]any, len(weights))
		for key, value := range weights {
			raw[key] = value
		}
		overrides["weights"] = raw
	}
	for _, name := range []string{"min-total-score", "min-success-ratio"} {
		if flag := cmd.Flag(name); flag != nil && flag.Changed {
			value, _ := cmd.Flags().GetFloat64(name)
			overrides[name] = value
		}
	}
	return overrides
}

func newStore(ctx context.Context, cfg *StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	if cfg == nil || cfg.Redis == nil || cfg.Redis.Address == "" {
		return store.NewMemory(), func() {}, nil
	}

	redisStore, err := store.NewRedis(ctx, *cfg.Redis, logger.With(zap.String("store", "redis")))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := redisStore.Close(); err != nil {
			logger.Warn("closing redis store", zap.Error(err))
		}
	}
	return redisStore, closeFn, nil
}

// newAdapters builds the extractor, analyzer and their fallbacks for the configured provider.
func newAdapters(ctx context.Context, cfg *AIConfig, table *skills.Table, log *zap.Logger) (pipeline.Dependencies, error) {
	fallbackExtractor := rulebased.NewExtractor(table)
	fallbackAnalyzer := rulebased.NeutralAnalyzer()

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case providerRuleBased:
		log.Warn("using rule-based adapters, requirement analysis is neutral")
		return pipeline.Dependencies{Extractor: fallbackExtractor, Analyzer: fallbackAnalyzer}, nil
	case "", providerGemini:
	default:
		return pipeline.Dependencies{}, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return pipeline.Dependencies{}, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		MaxLogLength:   cfg.Gemini.MaxLogLength,
	}, log)
	if err != nil {
		return pipeline.Dependencies{}, err
	}

	deps := pipeline.Dependencies{
		Extractor: gemini.NewExtractor(generator, logger.ForAdapter(log, ai.KindExtraction, providerGemini, generator.Model())),
		Analyzer:  gemini.NewAnalyzer(generator, logger.ForAdapter(log, ai.KindAnalysis, providerGemini, generator.Model())),
	}
	if !cfg.DisableFallback {
		deps.FallbackExtractor = fallbackExtractor
		deps.FallbackAnalyzer = fallbackAnalyzer
	}
	if cfg.Semantic {
		deps.Semantic = gemini.NewSimilarity(generator, logger.ForAdapter(log, ai.KindSimilarity, providerGemini, cfg.Gemini.EmbeddingModel))
	}
	return deps, nil
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func printSnapshot(w io.Writer, snapshot *model.JobSnapshot, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "job %s: %s %s\n", snapshot.ID, snapshot.State, snapshot.Reason)
	if snapshot.Result == nil {
		for _, status := range snapshot.Candidates {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", status.ID, status.Stage, status.Error)
		}
		return tw.Flush()
	}

	result := snapshot.Result
	fmt.Fprintln(tw, "\nRANK\tTIER\tTOTAL\tSKILLS\tEXPERIENCE\tEDUCATION\tCAREER\tOTHER\tCANDIDATE")
	for _, c := range result.Ranked {
		writeCandidate(tw, fmt.Sprint(c.Rank), c)
	}
	for _, c := range result.Filtered {
		writeCandidate(tw, "-", c)
	}

	if len(result.Filtered) > 0 {
		fmt.Fprintln(tw, "\nFILTERED\tREASON")
		for _, c := range result.Filtered {
			fmt.Fprintf(tw, "%s\t%s\n", displayName(c.CandidateName, c.CandidateID), c.FilterReason)
		}
	}
	if len(result.Excluded) > 0 {
		fmt.Fprintln(tw, "\nEXCLUDED\tSTAGE\tREASON")
		for _, c := range result.Excluded {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", displayName(c.Name, c.CandidateID), c.Stage, c.Reason)
		}
	}

	if len(result.Filters) > 0 {
		fmt.Fprintln(tw, "\nFILTER\tINITIAL\tDROPPED\tLEFT\tNOTE")
		for _, f := range result.Filters {
			if !f.Enabled {
				fmt.Fprintf(tw, "%s\t-\t-\t-\tdisabled: %s\n", f.Name, f.Reason)
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t\n", f.Name, f.Initial, f.Dropped, f.Left)
		}
	}

	tiers := make([]string, 0, len(result.TierDistribution))
	for tier, n := range result.TierDistribution {
		tiers = append(tiers, fmt.Sprintf("%s=%d", tier, n))
	}
	sort.Strings(tiers)
	fmt.Fprintf(tw, "\ntiers: %s\n", strings.Join(tiers, " "))
	for _, anomaly := range result.Anomalies {
		fmt.Fprintf(tw, "anomaly: %s\n", anomaly)
	}
	return tw.Flush()
}

func writeCandidate(w io.Writer, rank string, c model.RankedCandidate) {
	s := c.SubScores
	fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%s\n",
		rank, c.Tier, c.Total, s.Skills, s.Experience, s.Education, s.Career, s.Other,
		displayName(c.CandidateName, c.CandidateID))
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}
