// Package drafting asks a generative text API for project descriptions.
package drafting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/metrics"
)

// SystemInstruction is sent with every drafting request.
const SystemInstruction = "You are a technical writer for a developer portfolio. " +
	"Write a concise, engaging project description of two to three sentences in plain prose. " +
	"Describe what the project does and highlight the technologies used. " +
	"Do not use markdown, headings, bullet points or quotation marks."

var (
	ErrMissingInput   = errors.New("title and technologies are required to draft a description")
	ErrEmptyCandidate = errors.New("response contained no candidate text")
	ErrDraftFailed    = errors.New("failed to generate description")
)

// Generator sends one generation request and returns the first candidate's text.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// Drafter produces project descriptions with bounded retries.
type Drafter struct {
	gen    Generator
	policy RetryPolicy
}

func NewDrafter(gen Generator, policy RetryPolicy) *Drafter {
	return &Drafter{gen: gen, policy: policy}
}

// Prompt builds the user query for a project.
func Prompt(title, technologies string) string {
	return fmt.Sprintf("Write a description for a portfolio project titled %q built with: %s.",
		strings.TrimSpace(title), strings.TrimSpace(technologies))
}

// Validate reports ErrMissingInput unless both title and technologies are set.
func Validate(title, technologies string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(technologies) == "" {
		return ErrMissingInput
	}
	return nil
}

// Draft validates the input, then tries up to the policy's attempt ceiling.
// A response without text counts as a failed attempt.
func (d *Drafter) Draft(ctx context.Context, title, technologies string) (string, error) {
	if err := Validate(title, technologies); err != nil {
		return "", err
	}

	log := logging.NewLogger(ctx)
	start := time.Now()
	defer metrics.RecordDraft(start)

	prompt := Prompt(title, technologies)
	var text string
	attempts, err := d.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		out, err := d.gen.Generate(ctx, SystemInstruction, prompt)
		if err == nil && strings.TrimSpace(out) == "" {
			err = ErrEmptyCandidate
		}
		if err != nil {
			if errors.Is(err, ErrEmptyCandidate) {
				metrics.DraftAttempts.WithLabelValues("empty").Inc()
			} else {
				metrics.DraftAttempts.WithLabelValues("error").Inc()
			}
			log.LogWarnf("draft", "attempt %d/%d failed: %v", attempt, d.policy.MaxAttempts, err)
			return err
		}
		metrics.DraftAttempts.WithLabelValues("success").Inc()
		text = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		log.LogError("draft", err)
		return "", fmt.Errorf("%w after %d attempts: %w", ErrDraftFailed, attempts, err)
	}
	return text, nil
}
