package summarize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/factchecker/claimradar/internal/llm"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// Separator joins the texts of one batch.
	Separator = "\n Next_line:"

	// DefaultMaxTokensPerBatch bounds a single summarization request.
	DefaultMaxTokensPerBatch = 6000

	systemPrompt = "You are a precise summarizer. Summarize the provided lines into a cohesive," +
		" accurate markdown document while preserving key details, numbers, and entity names." +
		" Put each distinct claim on its own line. Reply with the markdown only."
)

// ErrInvalidInputID is returned when an input id cannot name an output file.
var ErrInvalidInputID = errors.New("input id is not a valid file name")

// Batch groups texts in order so that each batch, joined with Separator,
// stays within maxTokens. A text larger than the budget forms its own batch.
// Empty texts are skipped.
func Batch(texts []string, maxTokens int, counter TokenCounter) [][]string {
	sepTokens := counter.Count(Separator)

	var (
		batches [][]string
		current []string
		tokens  int
	)
	for _, text := range texts {
		if text == "" {
			continue
		}
		n := counter.Count(text)
		if len(current) > 0 && tokens+sepTokens+n > maxTokens {
			batches = append(batches, current)
			current, tokens = nil, 0
		}
		if len(current) > 0 {
			tokens += sepTokens
		}
		current = append(current, text)
		tokens += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// Summarizer condenses cleaned texts into one markdown document.
type Summarizer struct {
	provider  llm.Provider
	counter   TokenCounter
	maxTokens int
	outputDir string
}

// New creates a Summarizer.
func New(provider llm.Provider, counter TokenCounter, cfg config.SummarizerConfig) *Summarizer {
	maxTokens := cfg.MaxTokensPerBatch
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokensPerBatch
	}
	return &Summarizer{
		provider:  provider,
		counter:   counter,
		maxTokens: maxTokens,
		outputDir: cfg.OutputDir,
	}
}

// Summarize batches texts, summarizes every batch concurrently and joins the
// results in batch order. With an output directory configured the document
// is also written to <inputID>.md.
func (s *Summarizer) Summarize(ctx context.Context, inputID string, texts []string) (string, error) {
	batches := Batch(texts, s.maxTokens, s.counter)
	if len(batches) == 0 {
		return "", nil
	}

	parts := make([]string, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			out, err := s.provider.CompleteWithSystem(gctx, systemPrompt, strings.Join(batch, Separator), llm.DefaultCompletionOptions())
			if err != nil {
				return fmt.Errorf("summarize batch %d: %w", i, err)
			}
			parts[i] = strings.TrimSpace(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	markdown := strings.Join(parts, "\n\n")
	log.Debug().Str("input_id", inputID).Int("batches", len(batches)).Int("chars", len(markdown)).Msg("Summarized input")

	if s.outputDir != "" {
		if err := s.write(inputID, markdown); err != nil {
			log.Warn().Err(err).Str("input_id", inputID).Msg("Failed to write summary")
		}
	}
	return markdown, nil
}

func (s *Summarizer) write(inputID, markdown string) error {
	if inputID == "" || inputID != filepath.Base(inputID) || inputID == "." || inputID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidInputID, inputID)
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.outputDir, inputID+".md"), []byte(markdown), 0644)
}
