// Package nl2sql turns a natural-language question about the distribution,
// sort and stores tables into a single SELECT statement and runs it.
//
// The pipeline is strictly sequential: prompt, completion, extraction,
// execution. Every failure along the way ends up in the error variant of
// ExecutionResult; Answer never returns a Go error.
package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/optimusx/nl2sql/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrEmptyQuestion is reported when Answer is called without a question
var ErrEmptyQuestion = errors.New("question is required")

// Completer produces raw completion text for a prompt. Implementations report
// their own failures as text rather than errors.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// Executor runs one statement and reports the outcome
type Executor interface {
	Execute(ctx context.Context, sql string) ExecutionResult
}

// Guard inspects an extracted statement and returns a rejection message, or ""
// to let it through.
type Guard func(sql string) string

// Pipeline wires a Completer and an Executor together
type Pipeline struct {
	completer Completer
	executor  Executor
	guard     Guard
}

type Option func(*Pipeline)

// WithGuard installs a statement check that runs between extraction and
// execution. Without it the executor receives whatever was extracted.
func WithGuard(g Guard) Option {
	return func(p *Pipeline) {
		p.guard = g
	}
}

func NewPipeline(completer Completer, executor Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		completer: completer,
		executor:  executor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Translate runs prompt building, completion and extraction, without touching
// the database. It returns the raw completion and the extracted statement.
func (p *Pipeline) Translate(ctx context.Context, question string) (string, string) {
	prompt := BuildPrompt(question)

	start := time.Now()
	raw := p.completer.Complete(ctx, prompt)
	metrics.ObserveCompletion(time.Since(start))
	log.Debug().Str("raw_sql", raw).Msg("completion received")

	sql := Extract(raw)
	log.Debug().Str("sql", sql).Msg("sql extracted")
	return raw, sql
}

// Answer is the single inbound operation: question in, ExecutionResult out
func (p *Pipeline) Answer(ctx context.Context, question string) ExecutionResult {
	if strings.TrimSpace(question) == "" {
		metrics.ObserveAnswer(StatusError)
		return Failure("", ErrEmptyQuestion)
	}

	_, sql := p.Translate(ctx, question)

	if p.guard != nil {
		if msg := p.guard(sql); msg != "" {
			log.Warn().Str("sql", sql).Str("reason", msg).Msg("statement rejected by guard")
			metrics.ObserveAnswer(StatusError)
			return Failure(sql, fmt.Errorf("SQL validation failed: %s", msg))
		}
	}

	start := time.Now()
	result := p.executor.Execute(ctx, sql)
	metrics.ObserveExecution(result.Status, time.Since(start))
	metrics.ObserveAnswer(result.Status)

	if !result.OK() {
		log.Info().Str("sql", sql).Str("error", result.ErrorMessage).Msg("query failed")
	} else {
		log.Debug().Str("sql", sql).Int("rows", len(result.Results)).Msg("query succeeded")
	}
	return result
}
