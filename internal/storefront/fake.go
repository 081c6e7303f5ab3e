package storefront

import (
	"context"
	"fmt"
	"sync"

	"github.com/playreply/pkg/models"
)

// Fake is an in-memory ReviewStore for tests and local dry runs.
type Fake struct {
	mu      sync.Mutex
	reviews []models.Review
	replies map[string]string

	ListErr error
	// PostErrs maps review ids to the error PostReply should return.
	PostErrs map[string]error
}

// NewFake builds a fake store over the given reviews.
func NewFake(reviews ...models.Review) *Fake {
	return &Fake{
		reviews:  reviews,
		replies:  make(map[string]string),
		PostErrs: make(map[string]error),
	}
}

// ListReviews returns the seeded reviews, at most maxResults of them.
func (f *Fake) ListReviews(ctx context.Context, maxResults int) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListErr != nil {
		return nil, f.ListErr
	}
	n := len(f.reviews)
	if maxResults > 0 && maxResults < n {
		n = maxResults
	}
	out := make([]models.Review, n)
	copy(out, f.reviews[:n])
	return out, nil
}

// PostReply records the reply, or fails if an error is seeded for the id.
func (f *Fake) PostReply(ctx context.Context, reviewID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.PostErrs[reviewID]; err != nil {
		return &DispatchError{ReviewID: reviewID, Err: err}
	}
	if _, dup := f.replies[reviewID]; dup {
		return &DispatchError{ReviewID: reviewID, Err: fmt.Errorf("review already has a reply")}
	}
	f.replies[reviewID] = text
	return nil
}

// Reply returns the recorded reply for a review, if any.
func (f *Fake) Reply(reviewID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.replies[reviewID]
	return text, ok
}

// PostedCount returns how many replies were dispatched.
func (f *Fake) PostedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}
