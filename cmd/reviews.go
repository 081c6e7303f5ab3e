package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// ListCommand returns the list command
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recent reviews from the Play Store",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "max-results",
				Aliases: []string{"n"},
				Usage:   "Maximum number of reviews to fetch",
				Value:   20,
			},
		},
		Action: runList,
	}
}

func runList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create storefront client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reviews, err := store.ListReviews(ctx, c.Int("max-results"))
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}

	if len(reviews) == 0 {
		fmt.Println("No reviews found")
		return nil
	}

	for _, r := range reviews {
		replied := " "
		if r.HasReply {
			replied = "R"
		}
		text := r.Text
		if len([]rune(text)) > 60 {
			text = string([]rune(text)[:57]) + "..."
		}
		text = strings.ReplaceAll(text, "\n", " ")
		fmt.Printf("[%s] %s %d* (%s) %s\n", replied, r.ID, r.Rating, r.ReviewerLang, text)
	}
	fmt.Printf("\n%d reviews\n", len(reviews))
	return nil
}

// ReplyCommand returns the reply command
func ReplyCommand() *cli.Command {
	return &cli.Command{
		Name:      "reply",
		Usage:     "Post a manual reply to a review",
		ArgsUsage: "REVIEW_ID REPLY_TEXT",
		Action:    runReply,
	}
}

func runReply(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("missing required arguments: REVIEW_ID REPLY_TEXT")
	}

	reviewID := c.Args().Get(0)
	text := strings.Join(c.Args().Slice()[1:], " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create storefront client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := store.PostReply(ctx, reviewID, text); err != nil {
		return fmt.Errorf("failed to post reply: %w", err)
	}

	fmt.Printf("Reply posted to review %s\n", reviewID)
	return nil
}
