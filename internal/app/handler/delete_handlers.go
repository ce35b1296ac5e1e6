package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/models"
)

type DeleteHandler struct {
	links  *service.LinksService
	drops  *service.DropsService
	logger *zap.Logger
}

func NewDelete(links *service.LinksService, drops *service.DropsService, logger *zap.Logger) *DeleteHandler {
	return &DeleteHandler{
		links:  links,
		drops:  drops,
		logger: logger,
	}
}

// DeleteLink removes one owned link; the remaining order stays dense.
func (h *DeleteHandler) DeleteLink(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	if err := h.links.DeleteLink(req.Context(), userID, chi.URLParam(req, "linkID")); err != nil {
		writeServiceError(res, err)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

// DeleteDrop removes one owned drop; the remaining order stays dense.
func (h *DeleteHandler) DeleteDrop(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	if err := h.drops.DeleteDrop(req.Context(), userID, chi.URLParam(req, "dropID")); err != nil {
		writeServiceError(res, err)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}
