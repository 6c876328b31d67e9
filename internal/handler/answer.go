package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/optimusx/nl2sql/internal/middleware"
	"github.com/optimusx/nl2sql/internal/models"
	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/optimusx/nl2sql/internal/security"
)

const maxBodyBytes = 1 << 20

// Answerer is the pipeline as seen by the HTTP layer
type Answerer interface {
	Answer(ctx context.Context, question string) nl2sql.ExecutionResult
	Translate(ctx context.Context, question string) (raw string, sql string)
}

// Guards screen questions before the pipeline runs. Nil fields are disabled.
type Guards struct {
	PII    *security.PIIDetector
	Prompt *security.PromptValidator
	Audit  *security.AuditLogger
}

// Screen returns why question must not be answered, or ""
func (g Guards) Screen(question string) string {
	if g.PII != nil {
		if kw, found := g.PII.Detect(question); found {
			return "question references sensitive data: " + kw
		}
	}
	if g.Prompt != nil {
		if res := g.Prompt.Validate(question); !res.Valid {
			return res.Message
		}
	}
	return ""
}

func (g Guards) audit() *security.AuditLogger {
	if g.Audit == nil {
		return security.NewAuditLogger(false)
	}
	return g.Audit
}

// AnswerHandler handles POST /api/v1/answer
type AnswerHandler struct {
	pipeline Answerer
	guards   Guards
}

func NewAnswerHandler(pipeline Answerer, guards Guards) *AnswerHandler {
	return &AnswerHandler{pipeline: pipeline, guards: guards}
}

func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.Question == "" {
		models.WriteError(w, http.StatusBadRequest, nl2sql.ErrEmptyQuestion.Error())
		return
	}

	apiKey := middleware.APIKey(r.Context())
	audit := h.guards.audit()

	if reason := h.guards.Screen(req.Question); reason != "" {
		audit.LogRejected(req.Question, apiKey, reason)
		models.WriteError(w, http.StatusBadRequest, reason)
		return
	}

	start := time.Now()

	if req.DryRun {
		raw, sql := h.pipeline.Translate(r.Context(), req.Question)
		audit.LogAnswer(security.AnswerEvent{
			Question:   req.Question,
			APIKey:     apiKey,
			SQL:        sql,
			Status:     "translated",
			DurationMs: time.Since(start).Milliseconds(),
			DryRun:     true,
		})
		models.WriteJSON(w, http.StatusOK, models.TranslationResponse{
			Status:        "translated",
			SQL:           sql,
			RawCompletion: raw,
		})
		return
	}

	res := h.pipeline.Answer(r.Context(), req.Question)
	audit.LogAnswer(security.AnswerEvent{
		Question:   req.Question,
		APIKey:     apiKey,
		SQL:        res.SQL,
		Status:     res.Status,
		RowCount:   len(res.Results),
		DurationMs: time.Since(start).Milliseconds(),
		Error:      res.ErrorMessage,
	})

	// both variants are a completed answer
	models.WriteJSON(w, http.StatusOK, res)
}

// MaskingAnswerer masks sensitive columns in every successful result
type MaskingAnswerer struct {
	Answerer
	Masker *security.DataMasker
}

func (m MaskingAnswerer) Answer(ctx context.Context, question string) nl2sql.ExecutionResult {
	res := m.Answerer.Answer(ctx, question)
	if res.OK() && m.Masker != nil {
		res.Results = m.Masker.MaskRows(res.Results)
	}
	return res
}

// MaskingExecutor masks sensitive columns in rows fetched directly by tools
type MaskingExecutor struct {
	nl2sql.Executor
	Masker *security.DataMasker
}

func (m MaskingExecutor) Execute(ctx context.Context, sql string) nl2sql.ExecutionResult {
	res := m.Executor.Execute(ctx, sql)
	if res.OK() && m.Masker != nil {
		res.Results = m.Masker.MaskRows(res.Results)
	}
	return res
}
