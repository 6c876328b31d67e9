package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/optimusx/nl2sql/internal/middleware"
	"github.com/optimusx/nl2sql/internal/models"
	"github.com/optimusx/nl2sql/internal/tools"
	"github.com/rs/zerolog/log"
)

// ToolsHandler exposes the tool registry over HTTP
type ToolsHandler struct {
	registry *tools.Registry
	guards   Guards
}

func NewToolsHandler(registry *tools.Registry, guards Guards) *ToolsHandler {
	return &ToolsHandler{registry: registry, guards: guards}
}

// List handles GET /api/v1/tools
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	out := make([]models.ToolInfo, 0, len(list))
	for _, t := range list {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			models.WriteError(w, http.StatusInternalServerError, "encode tool schema: "+err.Error())
			return
		}
		out = append(out, models.ToolInfo{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"tools": out})
}

// Invoke handles POST /api/v1/tools/{name}
func (h *ToolsHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tool, ok := h.registry.Get(name)
	if !ok {
		models.WriteError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}

	input := map[string]any{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if q, ok := input["question"].(string); ok && q != "" {
		if reason := h.guards.Screen(q); reason != "" {
			h.guards.audit().LogRejected(q, middleware.APIKey(r.Context()), reason)
			models.WriteError(w, http.StatusBadRequest, reason)
			return
		}
	}

	out, err := tool.Execute(r.Context(), input)
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("tool invocation failed")
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if json.Valid([]byte(out)) {
		models.WriteJSON(w, http.StatusOK, json.RawMessage(out))
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"output": out})
}
