package reply

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/playreply/internal/generator"
	"github.com/playreply/internal/history"
	"github.com/playreply/internal/storefront"
	"github.com/playreply/pkg/models"
)

const goodReply = "Thank you for flagging this! Our team is investigating the crash and a fix is on the way. Please reach out at help@notely.app so we can follow up."

// scriptedModel returns canned responses keyed by call order.
type scriptedModel struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedModel) Call(ctx context.Context, input string, options ...llms.CallOption) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return goodReply, nil
}

func testDeps(t *testing.T, store Storefront, model generator.ModelCaller) Deps {
	t.Helper()
	hist, err := history.NewStore(context.Background(), nil)
	require.NoError(t, err)

	return Deps{
		Store:     store,
		Generator: generator.New(model),
		History:   hist,
		Knowledge: models.KnowledgeBase{
			AppName:        "Notely",
			SupportContact: "help@notely.app",
		},
	}
}

func review(id string, rating int, text string) models.Review {
	return models.Review{ID: id, Rating: rating, Text: text}
}

func TestRunOnceDryRunEndToEnd(t *testing.T) {
	fake := storefront.NewFake(review("gp:1", 1, "App crashes constantly"))
	o := New(testDeps(t, fake, &scriptedModel{}))

	summary, err := o.RunOnce(context.Background(), 1, ModeDryRun)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, StatusPreviewed, summary.Outcomes[0].Status)
	assert.Equal(t, goodReply, summary.Outcomes[0].Response)

	// Dry run never touches the dispatch side of the storefront.
	assert.Equal(t, 0, fake.PostedCount())

	// The accepted preview still lands in history.
	assert.Equal(t, 1, o.Stats().TotalReplies)
}

func TestRunOnceLiveDispatches(t *testing.T) {
	fake := storefront.NewFake(review("gp:1", 5, "Love this app"))
	o := New(testDeps(t, fake, &scriptedModel{}))

	summary, err := o.RunOnce(context.Background(), 5, ModeLive)
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, StatusDispatched, summary.Outcomes[0].Status)

	posted, ok := fake.Reply("gp:1")
	require.True(t, ok)
	assert.Equal(t, goodReply, posted)
	assert.Equal(t, 1, o.Stats().TotalReplies)
}

func TestRunOnceSkipsExistingReply(t *testing.T) {
	rev := review("gp:1", 1, "Still broken!!")
	rev.HasReply = true
	fake := storefront.NewFake(rev)
	model := &scriptedModel{}
	o := New(testDeps(t, fake, model))

	summary, err := o.RunOnce(context.Background(), 5, ModeLive)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, StatusSkipped, summary.Outcomes[0].Status)
	assert.Equal(t, ReasonAlreadyHasReply, summary.Outcomes[0].Reason)
	// The model is never consulted for skipped reviews.
	assert.Equal(t, 0, model.calls)
}

func TestRunOnceSkipsEmptyText(t *testing.T) {
	fake := storefront.NewFake(review("gp:1", 4, "   \n\t "))
	o := New(testDeps(t, fake, &scriptedModel{}))

	summary, err := o.RunOnce(context.Background(), 5, ModeDryRun)
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, summary.Outcomes[0].Status)
	assert.Equal(t, ReasonNoComment, summary.Outcomes[0].Reason)
}

func TestRunOnceIsolatesGenerationFailure(t *testing.T) {
	fake := storefront.NewFake(
		review("gp:1", 2, "meh"),
		review("gp:2", 5, "great"),
		review("gp:3", 4, "nice"),
	)
	model := &scriptedModel{errs: []error{errors.New("invalid API key")}}
	o := New(testDeps(t, fake, model))

	summary, err := o.RunOnce(context.Background(), 5, ModeDryRun)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Successful)

	assert.Equal(t, StatusFailed, summary.Outcomes[0].Status)
	assert.Equal(t, ReasonGenerationFailed, summary.Outcomes[0].Reason)
	assert.Equal(t, StatusPreviewed, summary.Outcomes[1].Status)
	assert.Equal(t, StatusPreviewed, summary.Outcomes[2].Status)
}

func TestRunOnceRejectsForbiddenResponse(t *testing.T) {
	fake := storefront.NewFake(review("gp:1", 1, "does not work"))
	model := &scriptedModel{responses: []string{"Sorry for the inconvenience, we'll fix it soon"}}
	o := New(testDeps(t, fake, model))

	summary, err := o.RunOnce(context.Background(), 5, ModeLive)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, StatusRejected, summary.Outcomes[0].Status)
	assert.Equal(t, "forbidden_term", summary.Outcomes[0].Reason)
	assert.Equal(t, 0, fake.PostedCount())
	// Rejected responses never reach history.
	assert.Equal(t, 0, o.Stats().TotalReplies)
}

func TestRunOnceDispatchFailure(t *testing.T) {
	fake := storefront.NewFake(review("gp:1", 5, "great"))
	fake.PostErrs["gp:1"] = errors.New("permission denied")
	o := New(testDeps(t, fake, &scriptedModel{}))

	summary, err := o.RunOnce(context.Background(), 5, ModeLive)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, summary.Outcomes[0].Status)
	assert.Equal(t, ReasonDispatchFailed, summary.Outcomes[0].Reason)
	assert.Equal(t, 0, o.Stats().TotalReplies)
}

func TestRunOnceListFailureAbortsRun(t *testing.T) {
	fake := storefront.NewFake()
	fake.ListErr = errors.New("storefront unavailable")
	o := New(testDeps(t, fake, &scriptedModel{}))

	_, err := o.RunOnce(context.Background(), 5, ModeDryRun)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list reviews")
}

func TestRunOnceUnconfiguredGenerator(t *testing.T) {
	fake := storefront.NewFake(review("gp:1", 3, "ok app"))
	deps := testDeps(t, fake, nil)
	deps.Generator = generator.New(nil)
	o := New(deps)

	_, err := o.RunOnce(context.Background(), 5, ModeDryRun)
	assert.ErrorIs(t, err, generator.ErrNotConfigured)
}

func TestRunOncePreservesFetchOrder(t *testing.T) {
	fake := storefront.NewFake(
		review("gp:3", 5, "a"),
		review("gp:1", 5, "great app, use it daily"),
		review("gp:2", 5, "nice"),
	)
	o := New(testDeps(t, fake, &scriptedModel{}))

	summary, err := o.RunOnce(context.Background(), 5, ModeDryRun)
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 3)
	assert.Equal(t, "gp:3", summary.Outcomes[0].ReviewID)
	assert.Equal(t, "gp:1", summary.Outcomes[1].ReviewID)
	assert.Equal(t, "gp:2", summary.Outcomes[2].ReviewID)
}

func TestRunOnceCancelledContext(t *testing.T) {
	fake := storefront.NewFake(review("gp:1", 5, "great"), review("gp:2", 5, "nice"))
	o := New(testDeps(t, fake, &scriptedModel{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := o.RunOnce(ctx, 5, ModeDryRun)
	// The batch may have been fetched before cancellation surfaced; the
	// partial summary is still returned.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
		if summary != nil {
			assert.LessOrEqual(t, summary.Processed, 2)
		}
	}
}

func TestPreviewOneDoesNotTouchHistory(t *testing.T) {
	fake := storefront.NewFake()
	o := New(testDeps(t, fake, &scriptedModel{}))

	gen, err := o.PreviewOne(context.Background(), review("gp:9", 1, "App crashes constantly"))
	require.NoError(t, err)
	assert.Equal(t, goodReply, gen.Validated)
	assert.Equal(t, "en", gen.Language)
	assert.WithinDuration(t, time.Now(), gen.GeneratedAt, time.Minute)

	assert.Equal(t, 0, o.Stats().TotalReplies)
	assert.Equal(t, 0, fake.PostedCount())
}

func TestPreviewOneSurfacesRejection(t *testing.T) {
	model := &scriptedModel{responses: []string{"ok"}}
	o := New(testDeps(t, storefront.NewFake(), model))

	gen, err := o.PreviewOne(context.Background(), review("gp:9", 3, "fine"))
	require.Error(t, err)
	require.NotNil(t, gen)
	assert.Equal(t, "ok", gen.Raw)
	assert.False(t, gen.Accepted())
}

func TestSummaryCountsSumToProcessed(t *testing.T) {
	rev := review("gp:1", 1, "bad")
	withReply := review("gp:2", 5, "good")
	withReply.HasReply = true
	fake := storefront.NewFake(rev, withReply, review("gp:3", 4, "nice to use"))
	model := &scriptedModel{responses: []string{"Sorry about this"}}
	o := New(testDeps(t, fake, model))

	summary, err := o.RunOnce(context.Background(), 5, ModeDryRun)
	require.NoError(t, err)

	assert.Equal(t, summary.Processed, len(summary.Outcomes))
	assert.Equal(t, summary.Processed, summary.Successful+summary.Failed+summary.Skipped)
}
