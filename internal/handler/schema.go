package handler

import (
	"net/http"

	"github.com/optimusx/nl2sql/internal/models"
	"github.com/optimusx/nl2sql/internal/nl2sql"
)

// Schema handles GET /api/v1/schema
func Schema(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, models.SchemaResponse{
		Tables:      nl2sql.Tables(),
		Description: nl2sql.SchemaDescription(),
	})
}
