package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"
)

// StatsCommand returns the ai-stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "ai-stats",
		Usage:  "Show statistics over AI replies sent so far",
		Action: runStats,
	}
}

func runStats(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	hist, err := buildHistory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open reply history: %w", err)
	}

	stats := hist.Stats()
	fmt.Printf("Total AI replies: %d\n", stats.TotalReplies)
	if stats.TotalReplies == 0 {
		return nil
	}
	fmt.Printf("Average length:   %.1f characters\n", stats.AverageLength)

	fmt.Println("\nBy language:")
	langs := make([]string, 0, len(stats.Languages))
	for lang := range stats.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Printf("  %-4s %d\n", lang, stats.Languages[lang])
	}

	fmt.Println("\nBy rating:")
	for rating := 1; rating <= 5; rating++ {
		if n, ok := stats.Ratings[rating]; ok {
			fmt.Printf("  %d* %d\n", rating, n)
		}
	}
	return nil
}

// HistoryCommand returns the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent AI replies",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of entries to show",
				Value:   10,
			},
		},
		Action: runHistory,
	}
}

func runHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	hist, err := buildHistory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open reply history: %w", err)
	}

	entries := hist.History(c.Int("limit"))
	if len(entries) == 0 {
		fmt.Println("No replies recorded yet")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  review %s  %d*  [%s]\n", e.Timestamp.Format("2006-01-02 15:04"), e.ReviewID, e.Rating, e.Language)
		fmt.Printf("  review: %s\n", e.ReviewText)
		fmt.Printf("  reply:  %s\n\n", e.FinalResponse)
	}
	return nil
}
