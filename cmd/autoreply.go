package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/playreply/internal/logging"
	"github.com/playreply/internal/reply"
)

// AutoReplyCommand returns the auto-reply command
func AutoReplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "auto-reply",
		Usage: "Generate and send AI replies for unanswered reviews",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "live",
				Usage: "Actually post replies instead of previewing them",
			},
			&cli.IntFlag{
				Name:    "max-results",
				Aliases: []string{"n"},
				Usage:   "Maximum number of reviews to process",
				Value:   20,
			},
			&cli.StringFlag{
				Name:    "ai",
				Aliases: []string{"a"},
				Usage:   "Override the AI provider to use",
			},
		},
		Action: runAutoReply,
	}
}

func runAutoReply(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	orch, _, err := buildOrchestrator(ctx, c, cfg)
	if err != nil {
		return err
	}

	mode := reply.ModeDryRun
	if c.Bool("live") {
		mode = reply.ModeLive
	}

	maxResults := c.Int("max-results")
	if !c.IsSet("max-results") && cfg.General.MaxResults > 0 {
		maxResults = cfg.General.MaxResults
	}

	fmt.Printf("Starting auto-reply run (mode: %s, max %d reviews)\n", mode, maxResults)

	summary, err := orch.RunOnce(ctx, maxResults, mode)
	if summary != nil {
		logRun(summary)
		printSummary(summary)
	}
	return err
}

// logRun writes the run transcript to the reply log directory. Log
// failures are reported but never fail the run itself.
func logRun(summary *reply.RunSummary) {
	runLog, err := logging.StartRunLogging(summary.RunID)
	if err != nil {
		fmt.Printf("Warning: could not write run transcript: %v\n", err)
		return
	}
	defer runLog.Close()

	runLog.Log("Mode: %s", summary.Mode)
	for _, o := range summary.Outcomes {
		runLog.LogReply(o.ReviewID, string(o.Status), o.Response)
		if o.Reason != "" {
			runLog.Log("Reason: %s", o.Reason)
		}
	}
	runLog.Log("Processed: %d, successful: %d, failed: %d, skipped: %d",
		summary.Processed, summary.Successful, summary.Failed, summary.Skipped)
}

func printSummary(summary *reply.RunSummary) {
	fmt.Printf("\nRun %s finished in %v\n", summary.RunID, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	fmt.Printf("  Processed:  %d\n", summary.Processed)
	fmt.Printf("  Successful: %d\n", summary.Successful)
	fmt.Printf("  Failed:     %d\n", summary.Failed)
	fmt.Printf("  Skipped:    %d\n", summary.Skipped)

	for _, o := range summary.Outcomes {
		switch o.Status {
		case reply.StatusPreviewed:
			fmt.Printf("\n--- %s (preview) ---\n%s\n", o.ReviewID, o.Response)
		case reply.StatusDispatched:
			fmt.Printf("\n--- %s (sent) ---\n%s\n", o.ReviewID, o.Response)
		case reply.StatusSkipped:
			fmt.Printf("\n--- %s skipped: %s\n", o.ReviewID, o.Reason)
		default:
			fmt.Printf("\n--- %s %s: %s\n", o.ReviewID, o.Status, o.Reason)
		}
	}
}
