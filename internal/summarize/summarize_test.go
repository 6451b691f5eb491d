package summarize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/factchecker/claimradar/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

type fakeProvider struct {
	calls int32
	fail  string
}

func (f *fakeProvider) CompleteWithSystem(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail != "" && strings.Contains(user, f.fail) {
		return "", errors.New("model overloaded")
	}
	return "summary(" + user + ")\n", nil
}

func (f *fakeProvider) RunWithTools(ctx context.Context, system, user string, tools []llm.Tool, opts llm.CompletionOptions) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) Name() string { return "fake" }

func TestCleanHTML(t *testing.T) {
	cases := map[string]string{
		"":                              "",
		"   ":                           "",
		"plain text":                    "plain text",
		"  <p>Hello <b>world</b></p>  ": "Hello world",
		"<div>A &amp; B</div>":          "A & B",
		"<script>alert(1)</script><p>kept</p><style>p{}</style>": "kept",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanHTML(in), in)
	}
}

func TestCleanAll_KeepsPositions(t *testing.T) {
	out := CleanAll([]string{"<p>a</p>", "", "b"})
	assert.Equal(t, []string{"a", "", "b"}, out)
}

func TestBatch(t *testing.T) {
	texts := []string{"a b c", "d e", "f g h i j k", "", "x"}
	batches := Batch(texts, 7, wordCounter{})
	assert.Equal(t, [][]string{{"a b c", "d e"}, {"f g h i j k"}, {"x"}}, batches)
}

func TestBatch_OversizedItemAlone(t *testing.T) {
	big := "1 2 3 4 5 6 7 8 9"
	batches := Batch([]string{"a", big, "b"}, 7, wordCounter{})
	assert.Equal(t, [][]string{{"a"}, {big}, {"b"}}, batches)
}

func TestBatch_Empty(t *testing.T) {
	assert.Empty(t, Batch(nil, 10, wordCounter{}))
	assert.Empty(t, Batch([]string{"", ""}, 10, wordCounter{}))
}

func TestEstimateCounter(t *testing.T) {
	c := EstimateCounter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("abc"))
	assert.Equal(t, 1, c.Count("abcd"))
	assert.Equal(t, 2, c.Count("abcde"))
	assert.Equal(t, 1, c.Count("ção"))
}

func TestSummarizer_OrderedJoin(t *testing.T) {
	provider := &fakeProvider{}
	s := New(provider, wordCounter{}, config.SummarizerConfig{MaxTokensPerBatch: 7})

	out, err := s.Summarize(context.Background(), "req-1", []string{"a b c", "d e", "f g h i j k", "x"})
	require.NoError(t, err)
	assert.Equal(t,
		"summary(a b c"+Separator+"d e)\n\nsummary(f g h i j k)\n\nsummary(x)",
		out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&provider.calls))
}

func TestSummarizer_BatchFailure(t *testing.T) {
	provider := &fakeProvider{fail: "boom"}
	s := New(provider, wordCounter{}, config.SummarizerConfig{MaxTokensPerBatch: 2})

	_, err := s.Summarize(context.Background(), "req-2", []string{"ok ok", "boom boom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestSummarizer_NothingToSummarize(t *testing.T) {
	provider := &fakeProvider{}
	s := New(provider, wordCounter{}, config.SummarizerConfig{})

	out, err := s.Summarize(context.Background(), "req-3", []string{"", ""})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, atomic.LoadInt32(&provider.calls))
}

func TestSummarizer_WritesOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "summaries")
	s := New(&fakeProvider{}, wordCounter{}, config.SummarizerConfig{OutputDir: dir})

	out, err := s.Summarize(context.Background(), "req-4", []string{"hello"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "req-4.md"))
	require.NoError(t, err)
	assert.Equal(t, out, string(data))

	// Unsafe ids are not written but the summary is still returned.
	out, err = s.Summarize(context.Background(), "../escape", []string{"hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.md"))
	assert.True(t, os.IsNotExist(err))
}
