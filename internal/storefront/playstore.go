package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/playreply/pkg/models"
)

const defaultBaseURL = "https://androidpublisher.googleapis.com/androidpublisher/v3"

// TokenSource yields a bearer token for the Play Developer API. Keeping
// it behind an interface lets a service refresh OAuth tokens while the
// CLI uses a static one.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("play access token is empty")
	}
	return string(s), nil
}

// PlayStore is the Google Play Developer API reviews client. All calls
// are bounded by the HTTP client timeout and paced by the rate limiter
// so one run cannot burn the API quota.
type PlayStore struct {
	packageName string
	baseURL     string
	tokens      TokenSource
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// PlayConfig configures a PlayStore client.
type PlayConfig struct {
	PackageName string
	BaseURL     string
	Tokens      TokenSource
	Timeout     time.Duration
}

// NewPlayStore builds a Play reviews client.
func NewPlayStore(cfg PlayConfig) (*PlayStore, error) {
	if cfg.PackageName == "" {
		return nil, fmt.Errorf("package name is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &PlayStore{
		packageName: cfg.PackageName,
		baseURL:     baseURL,
		tokens:      cfg.Tokens,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Every(time.Second), 5),
	}, nil
}

// Wire types for the androidpublisher reviews resource. A review's
// comments array mixes user and developer entries; the first userComment
// carries the rating and text.
type playReviewsResponse struct {
	Reviews []playReview `json:"reviews"`
}

type playReview struct {
	ReviewID string        `json:"reviewId"`
	Comments []playComment `json:"comments"`
}

type playComment struct {
	UserComment      *playUserComment      `json:"userComment,omitempty"`
	DeveloperComment *playDeveloperComment `json:"developerComment,omitempty"`
}

type playUserComment struct {
	Text             string        `json:"text"`
	StarRating       int           `json:"starRating"`
	ReviewerLanguage string        `json:"reviewerLanguage"`
	Device           string        `json:"device"`
	AppVersionCode   int           `json:"appVersionCode"`
	AndroidOsVersion int           `json:"androidOsVersion"`
	ThumbsUpCount    int           `json:"thumbsUpCount"`
	LastModified     playTimestamp `json:"lastModified"`
}

type playDeveloperComment struct {
	Text         string        `json:"text"`
	LastModified playTimestamp `json:"lastModified"`
}

type playTimestamp struct {
	Seconds int64 `json:"seconds,string"`
}

// ListReviews fetches the latest reviews, most recent first as the API
// returns them.
func (p *PlayStore) ListReviews(ctx context.Context, maxResults int) ([]models.Review, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/applications/%s/reviews?maxResults=%d", p.baseURL, p.packageName, maxResults)
	body, err := p.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	var resp playReviewsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse reviews response: %w", err)
	}

	reviews := make([]models.Review, 0, len(resp.Reviews))
	for _, r := range resp.Reviews {
		reviews = append(reviews, convertReview(r))
	}

	log.Debug().Int("count", len(reviews)).Str("package", p.packageName).Msg("Fetched reviews")
	return reviews, nil
}

// PostReply publishes a developer reply to one review.
func (p *PlayStore) PostReply(ctx context.Context, reviewID, text string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return &DispatchError{ReviewID: reviewID, Err: err}
	}

	url := fmt.Sprintf("%s/applications/%s/reviews/%s:reply", p.baseURL, p.packageName, reviewID)
	payload, err := json.Marshal(map[string]string{"replyText": text})
	if err != nil {
		return &DispatchError{ReviewID: reviewID, Err: err}
	}

	if _, err := p.doRequest(ctx, http.MethodPost, url, payload); err != nil {
		return &DispatchError{ReviewID: reviewID, Err: err}
	}

	log.Info().Str("review_id", reviewID).Int("chars", len(text)).Msg("Posted developer reply")
	return nil
}

func (p *PlayStore) doRequest(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("play API returned %d: %s", resp.StatusCode, truncateBody(data))
	}
	return data, nil
}

func truncateBody(data []byte) string {
	const max = 200
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}

func convertReview(r playReview) models.Review {
	review := models.Review{ID: r.ReviewID}
	for _, c := range r.Comments {
		if c.UserComment != nil && review.Text == "" {
			review.Text = c.UserComment.Text
			review.Rating = c.UserComment.StarRating
			review.ReviewerLang = c.UserComment.ReviewerLanguage
			review.Device = c.UserComment.Device
			if c.UserComment.AppVersionCode > 0 {
				review.AppVersionCode = fmt.Sprintf("%d", c.UserComment.AppVersionCode)
			}
			if c.UserComment.AndroidOsVersion > 0 {
				review.AndroidVersion = fmt.Sprintf("%d", c.UserComment.AndroidOsVersion)
			}
			review.ThumbsUp = c.UserComment.ThumbsUpCount
			if c.UserComment.LastModified.Seconds > 0 {
				review.LastModified = time.Unix(c.UserComment.LastModified.Seconds, 0)
			}
		}
		if c.DeveloperComment != nil {
			review.HasReply = true
			review.ReplyText = c.DeveloperComment.Text
		}
	}
	return review
}
