package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/osudump/osudump/internal/core/store"
	errwrap "github.com/osudump/osudump/internal/errors"
	"github.com/osudump/osudump/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect saved most-played snapshots",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, newest first",
	Args:  noArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Render a saved snapshot",
	Args:  exactlyOneArg("run id"),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyListCmd.Flags().String("user", "", "Only list snapshots of this user id")
	historyListCmd.Flags().Int("limit", 0, "Maximum number of snapshots to list (0 = all)")
	historyListCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
	historyListCmd.Flags().String("out", "", "Write output to a file (default stdout)")

	historyShowCmd.Flags().StringP("output", "o", "text", "Output format: text, json")
	historyShowCmd.Flags().String("out", "", "Write output to a file (default stdout)")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := errwrap.WithCorrelationID(cmd.Context(), uuid.NewString())

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	userID, err := cmd.Flags().GetString("user")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "Failed to open history store")
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	snapshots, err := db.ListSnapshots(ctx, userID, limit)
	if err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "Failed to list snapshots")
	}

	rendered, err := renderHistory(format, snapshots)
	if err != nil {
		return errwrap.WrapInternal(ctx, err, "Failed to render history")
	}
	return writeRendered(outPath, cmd.OutOrStdout(), rendered)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := errwrap.WithCorrelationID(cmd.Context(), uuid.NewString())

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "Failed to open history store")
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	snapshot, err := db.GetSnapshot(ctx, args[0])
	if err != nil {
		return snapshotLoadError(ctx, err)
	}

	rendered, err := output.NewFormatter(format).FormatSummary(snapshot.Sets)
	if err != nil {
		return errwrap.WrapInternal(ctx, err, "Failed to render snapshot")
	}
	return writeRendered(outPath, cmd.OutOrStdout(), rendered)
}

func snapshotLoadError(ctx context.Context, err error) error {
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return errwrap.WrapNotFound(ctx, err, err.Error())
	}
	return errwrap.WrapDatabaseError(ctx, err, "Failed to load snapshot")
}

func renderHistory(format output.Format, snapshots []store.Snapshot) (string, error) {
	if format == output.FormatJSON {
		if snapshots == nil {
			snapshots = []store.Snapshot{}
		}
		payload, err := json.MarshalIndent(snapshots, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}

	lines := []string{"Most Played Snapshots", ""}
	if len(snapshots) == 0 {
		lines = append(lines, "(no saved snapshots)")
		return ascii.DrawBox(strings.Join(lines, "\n"), 0), nil
	}

	for _, snapshot := range snapshots {
		lines = append(lines, fmt.Sprintf("%s  user=%s  %s",
			snapshot.ID, snapshot.UserID, snapshot.FetchedAt.UTC().Format(time.RFC3339)))
		lines = append(lines, fmt.Sprintf("    modes=%s limit=%s exact=%t sets=%d plays=%d records=%d",
			describeModes(snapshot.Modes), describeLimit(snapshot.Limit), snapshot.Exact,
			snapshot.SetCount, snapshot.TotalPlays, snapshot.RecordCount))
	}

	return ascii.DrawBox(strings.Join(lines, "\n"), 0), nil
}

func describeModes(modes []string) string {
	if len(modes) == 0 {
		return "all"
	}
	return strings.Join(modes, ",")
}

func describeLimit(limit int) string {
	if limit <= 0 {
		return "none"
	}
	return fmt.Sprint(limit)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errwrap.WrapInvalidInput(cmd.Context(), fmt.Errorf("unexpected arguments: %v", args), "This command takes no arguments")
	}
	return nil
}

func exactlyOneArg(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
			return errwrap.WrapInvalidInput(cmd.Context(), fmt.Errorf("expected 1 argument, got %d", len(args)), "A "+name+" is required")
		}
		return nil
	}
}
