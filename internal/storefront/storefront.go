// Package storefront talks to the app store that holds the reviews.
package storefront

import (
	"context"
	"fmt"

	"github.com/playreply/pkg/models"
)

// ReviewStore is the storefront contract the orchestrator consumes:
// list recent reviews and post a developer reply.
type ReviewStore interface {
	// ListReviews returns up to maxResults reviews, most recent first.
	ListReviews(ctx context.Context, maxResults int) ([]models.Review, error)
	// PostReply publishes text as the developer reply to one review.
	PostReply(ctx context.Context, reviewID, text string) error
}

// DispatchError wraps a failed reply post. Recovered per review by the
// orchestrator.
type DispatchError struct {
	ReviewID string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to post reply to review %s: %v", e.ReviewID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
