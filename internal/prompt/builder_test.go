package prompt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/playreply/internal/policy"
	"github.com/playreply/pkg/models"
)

func testKB() models.KnowledgeBase {
	return models.KnowledgeBase{
		AppName:     "Notely",
		Description: "A note-taking app",
		Features:    []string{"Sync", "Offline mode"},
		FAQs: []models.FAQ{
			{Question: "Is it free?", Answer: "Yes."},
		},
		TargetUsers:    "Students",
		SupportContact: "help@notely.app",
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder()
	in := Input{
		ReviewText: "App crashes constantly",
		Rating:     1,
		Language:   "en",
		Policy:     policy.ApologizeAndSupport,
		Knowledge:  testKB(),
	}

	first := b.Build(in)
	second := b.Build(in)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("prompt not deterministic (-first +second):\n%s", diff)
	}
}

func TestBuildContents(t *testing.T) {
	b := NewBuilder()
	out := b.Build(Input{
		ReviewText: "App crashes constantly",
		Rating:     1,
		Language:   "tr",
		Policy:     policy.ApologizeAndSupport,
		Knowledge:  testKB(),
	})

	assert.Contains(t, out, "Respond in Turkish.")
	assert.Contains(t, out, "help@notely.app")
	assert.Contains(t, out, "- Name: Notely")
	assert.Contains(t, out, "- Key Features: Sync, Offline mode")
	assert.Contains(t, out, "Q: Is it free?\nA: Yes.")
	assert.Contains(t, out, "Rating: 1/5 stars")
	assert.Contains(t, out, `"App crashes constantly"`)
	assert.Contains(t, out, "Maximum 350 characters")
	assert.True(t, strings.HasSuffix(out, "Generate a response:"))
}

func TestBuildPolicyInstructions(t *testing.T) {
	b := NewBuilder()
	kb := testKB()

	low := b.Build(Input{ReviewText: "bad", Rating: 2, Language: "en", Policy: policy.ApologizeAndSupport, Knowledge: kb})
	mid := b.Build(Input{ReviewText: "ok", Rating: 3, Language: "en", Policy: policy.NeutralImprovement, Knowledge: kb})
	high := b.Build(Input{ReviewText: "nice", Rating: 5, Language: "en", Policy: policy.ThankAndEngage, Knowledge: kb})

	assert.Contains(t, low, "Apologize sincerely")
	assert.Contains(t, mid, "Acknowledge the feedback neutrally")
	assert.Contains(t, high, "Thank enthusiastically")
}

func TestBuildUnknownLanguageFallsBackToEnglish(t *testing.T) {
	b := NewBuilder()
	out := b.Build(Input{ReviewText: "x", Rating: 3, Language: "xx", Policy: policy.NeutralImprovement, Knowledge: testKB()})
	assert.Contains(t, out, "Respond in English.")
}

func TestBuildFAQLimit(t *testing.T) {
	kb := testKB()
	kb.FAQs = nil
	for i := 0; i < 8; i++ {
		kb.FAQs = append(kb.FAQs, models.FAQ{Question: "q", Answer: "a"})
	}

	out := NewBuilder().Build(Input{ReviewText: "x", Rating: 3, Language: "en", Policy: policy.NeutralImprovement, Knowledge: kb})
	assert.Equal(t, MaxFAQs, strings.Count(out, "Q: q"))
}

func TestBuildNoFAQs(t *testing.T) {
	kb := testKB()
	kb.FAQs = nil

	out := NewBuilder().Build(Input{ReviewText: "x", Rating: 3, Language: "en", Policy: policy.NeutralImprovement, Knowledge: kb})
	assert.Contains(t, out, "No FAQs available.")
}
