package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/osudump/osudump/internal/config"
	"github.com/osudump/osudump/internal/core"
	"github.com/osudump/osudump/internal/core/engine"
	"github.com/osudump/osudump/internal/core/mostplayed"
	"github.com/osudump/osudump/internal/core/osuapi"
	"github.com/osudump/osudump/internal/core/store"
	errwrap "github.com/osudump/osudump/internal/errors"
	"github.com/osudump/osudump/internal/observability"
	"github.com/osudump/osudump/internal/output"
)

var mostPlayedCmd = &cobra.Command{
	Use:   "most-played <user-id> [modes...]",
	Short: "List a player's most played beatmap sets",
	Long: `List a player's most played beatmaps grouped by beatmap set.

Modes filter the difficulties counted: standard, mania, taiko, catch. All modes
are counted by default. Collecting the whole listing may take a long time for
players with many plays; --limit stops early once enough sets have been seen,
which may miss sets further down the listing unless --exact is given.`,
	Args: userIDAndModes,
	RunE: runMostPlayed,
}

func init() {
	rootCmd.AddCommand(mostPlayedCmd)
	addMostPlayedFlags(mostPlayedCmd.Flags())

	_ = viper.BindPFlag("api.base_url", mostPlayedCmd.Flags().Lookup("api-url"))
	_ = viper.BindPFlag("rate_limit", mostPlayedCmd.Flags().Lookup("rate-limit"))
	_ = viper.BindPFlag("fetch.timeout", mostPlayedCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("fetch.max_pages", mostPlayedCmd.Flags().Lookup("max-pages"))
}

func addMostPlayedFlags(flags *pflag.FlagSet) {
	flags.StringP("api-url", "a", osuapi.DefaultBaseURL, "API base URL; a local caching proxy saves time and bandwidth")
	flags.StringP("rate-limit", "r", "50:60", "Request rate limit as N:M, N requests per M seconds; 0:0 disables")
	flags.StringP("output", "o", "text", "Output format: text, json")
	flags.IntP("limit", "l", 0, "Number of beatmap sets to output")
	flags.Bool("exact", false, "Fetch the whole listing so --limit is exact")
	flags.Bool("save", false, "Save the result to the local history")
	flags.String("out", "", "Write output to a file instead of stdout")
	flags.Duration("timeout", 0, "Overall deadline for collecting data (0 = none)")
	flags.Int("max-pages", 0, "Maximum number of pages to request (0 = unbounded)")
}

// mostPlayedRequest is one parsed most-played invocation.
type mostPlayedRequest struct {
	UserID string
	Modes  []core.Mode
	Limit  int
	Exact  bool
}

// mostPlayedResult holds the aggregated sets and the raw record count.
type mostPlayedResult struct {
	Sets    []core.BeatmapsetSummary
	Records int
}

func userIDAndModes(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return errwrap.WrapInvalidInput(cmd.Context(), fmt.Errorf("missing user id"), "A user id is required")
	}
	if _, err := core.ParseModes(args[1:]); err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, err.Error())
	}
	return nil
}

func runMostPlayed(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	ctx := errwrap.WithCorrelationID(cmd.Context(), runID)

	req, err := parseMostPlayedRequest(cmd, args)
	if err != nil {
		return errwrap.WrapInvalidInput(ctx, err, err.Error())
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := observability.CLILogger
	logger.Debug("Collecting most played beatmaps",
		zap.String("run_id", runID),
		zap.String("user_id", req.UserID),
		zap.String("rate_limit", cfg.RateLimit.String()),
		zap.Int("limit", req.Limit),
		zap.Bool("exact", req.Exact),
	)

	result, err := collectMostPlayed(ctx, cfg, req, logger)
	if err != nil {
		return errwrap.WrapFetchError(ctx, err)
	}
	logger.Debug("Data collected",
		zap.Int("records", result.Records),
		zap.Int("sets", len(result.Sets)),
	)

	if save {
		if err := saveSnapshot(ctx, cfg, runID, req, result); err != nil {
			return err
		}
	}

	rendered, err := output.NewFormatter(format).FormatSummary(result.Sets)
	if err != nil {
		return errwrap.WrapInternal(ctx, err, "Failed to render output")
	}
	return writeRendered(outPath, cmd.OutOrStdout(), rendered)
}

func parseMostPlayedRequest(cmd *cobra.Command, args []string) (mostPlayedRequest, error) {
	req := mostPlayedRequest{UserID: strings.TrimSpace(args[0])}

	modes, err := core.ParseModes(args[1:])
	if err != nil {
		return req, err
	}
	req.Modes = modes

	req.Limit, err = cmd.Flags().GetInt("limit")
	if err != nil {
		return req, err
	}
	if cmd.Flags().Changed("limit") && req.Limit <= 0 {
		return req, fmt.Errorf("--limit must be a positive number, got %d", req.Limit)
	}

	req.Exact, err = cmd.Flags().GetBool("exact")
	if err != nil {
		return req, err
	}

	return req, nil
}

// collectMostPlayed walks the listing and aggregates it. Walks are bounded by
// cfg.Fetch.Timeout when set.
func collectMostPlayed(ctx context.Context, cfg *config.Config, req mostPlayedRequest, logger engine.Logger) (*mostPlayedResult, error) {
	if cfg.Fetch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Fetch.Timeout)
		defer cancel()
	}

	client := newMostPlayedClient(cfg, logger)
	records, err := client.FetchAll(ctx, req.UserID, osuapi.FetchOptions{Limit: req.Limit, Exact: req.Exact})
	if err != nil {
		return nil, err
	}

	return &mostPlayedResult{
		Sets:    mostplayed.Summarize(records, req.Limit, req.Modes),
		Records: len(records),
	}, nil
}

func newMostPlayedClient(cfg *config.Config, logger engine.Logger) *osuapi.MostPlayedClient {
	fetcher := &engine.Fetcher{
		Client:      &http.Client{Timeout: cfg.Fetch.RequestTimeout},
		Limiter:     engine.NewRateLimiter(cfg.RateLimit),
		UserAgent:   cfg.API.UserAgent,
		BackoffBase: cfg.Fetch.BackoffBase,
		Logger:      logger,
	}

	client := osuapi.NewMostPlayedClient(cfg.API.BaseURL, fetcher)
	client.PageSize = cfg.Fetch.PageSize
	client.MaxRetries = cfg.Fetch.MaxRetries
	client.MaxPages = cfg.Fetch.MaxPages
	client.Logger = logger
	return client
}

func saveSnapshot(ctx context.Context, cfg *config.Config, runID string, req mostPlayedRequest, result *mostPlayedResult) error {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "Failed to open history store")
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	snapshot := &store.Snapshot{
		ID:          runID,
		UserID:      req.UserID,
		Modes:       lo.Map(req.Modes, func(mode core.Mode, _ int) string { return mode.String() }),
		Limit:       req.Limit,
		Exact:       req.Exact,
		RecordCount: result.Records,
		Sets:        result.Sets,
	}
	if err := db.SaveSnapshot(ctx, snapshot); err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "Failed to save snapshot")
	}

	observability.CLILogger.Info("Snapshot saved",
		zap.String("id", snapshot.ID),
		zap.String("user_id", snapshot.UserID),
		zap.Int("sets", snapshot.SetCount),
	)
	return nil
}
