package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/models"
)

// AccountHandler serves the MFA-gated account-deletion endpoint.
type AccountHandler struct {
	auth    service.AuthIface
	deleter service.AccountDeleter
	logger  *zap.Logger
}

func NewAccount(auth service.AuthIface, deleter service.AccountDeleter, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		auth:    auth,
		deleter: deleter,
		logger:  logger,
	}
}

// DeleteAccount runs the deletion sequence. The step order is part of
// the contract: a missing credential is rejected before the code is
// even inspected, a short code is rejected before any token or MFA
// verification, and the kill switch is consulted only after MFA passes.
func (h *AccountHandler) DeleteAccount(res http.ResponseWriter, req *http.Request) {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "Missing bearer token")
		return
	}

	var body models.DeleteAccountRequest
	if err := decodeJSONBody(res, req, &body); err != nil {
		var mr *malformedRequest
		if errors.As(err, &mr) {
			writeError(res, http.StatusBadRequest, models.CodeInvalidRequest, mr.msg)
			return
		}
		h.logger.Error("account delete body decode failed", zap.Error(err))
		writeError(res, http.StatusBadRequest, models.CodeInvalidRequest, "Invalid request body")
		return
	}

	if len(body.MFACode) != 6 {
		writeError(res, http.StatusBadRequest, models.CodeMFACodeRequired, "A 6-digit MFA code is required")
		return
	}

	claims, err := h.auth.ParseRawJWT(trimBearer(authHeader))
	if err != nil {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "Invalid or expired token")
		return
	}

	stats, err := h.deleter.DeleteAccount(req.Context(), claims.UserID, body.MFACode)
	if err != nil {
		var derr *service.DeletionError
		if errors.As(err, &derr) {
			writeError(res, derr.Status, derr.Code, derr.Message)
			return
		}
		h.logger.Error("account deletion failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, models.CodeInternalError, "Internal error")
		return
	}

	writeJSON(res, http.StatusOK, models.DeleteAccountResponse{
		Success: true,
		Message: "Account and all associated data deleted",
		Stats:   stats,
	})
}

func trimBearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return h
}
