package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/middleware"
	"github.com/linkdropapp/linkdrop/internal/models"
	"github.com/linkdropapp/linkdrop/internal/storage"
)

type PostHandler struct {
	profiles *service.ProfileService
	links    *service.LinksService
	drops    *service.DropsService
	mfa      *service.MFAService
	sessions *service.SessionService
	billing  service.BillingIface
	logger   *zap.Logger
}

func NewPost(profiles *service.ProfileService, links *service.LinksService, drops *service.DropsService,
	mfa *service.MFAService, sessions *service.SessionService, billing service.BillingIface, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		profiles: profiles,
		links:    links,
		drops:    drops,
		mfa:      mfa,
		sessions: sessions,
		billing:  billing,
		logger:   logger,
	}
}

func userIDFrom(req *http.Request) (string, bool) {
	userID, ok := req.Context().Value(middleware.UserIDKey).(string)
	return userID, ok
}

// decodeOrFail decodes the body and writes the error response itself,
// returning false when the request was malformed.
func (h *PostHandler) decodeOrFail(res http.ResponseWriter, req *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(res, req, dst); err != nil {
		var mr *malformedRequest
		if errors.As(err, &mr) {
			writeError(res, mr.status, models.CodeInvalidRequest, mr.msg)
			return false
		}
		h.logger.Error("body decode failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, models.CodeInternalError, "")
		return false
	}
	return true
}

// writeServiceError maps service-layer errors onto the error envelope.
func writeServiceError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrConflict):
		writeError(res, http.StatusConflict, "CONFLICT", "That name is already taken")
	case errors.Is(err, storage.ErrNotFound):
		writeError(res, http.StatusNotFound, "NOT_FOUND", "Not found")
	case errors.Is(err, service.ErrPlanLimit):
		writeError(res, http.StatusForbidden, "PLAN_LIMIT", "Upgrade to add more")
	case errors.Is(err, service.ErrUnsafeURL):
		writeError(res, http.StatusBadRequest, models.CodeInvalidRequest, service.ErrUnsafeURL.Error())
	case errors.Is(err, service.ErrReorderInFlight):
		writeError(res, http.StatusConflict, "REORDER_IN_FLIGHT", "A reorder is already being saved")
	case errors.Is(err, service.ErrIndexOutOfRange):
		writeError(res, http.StatusBadRequest, models.CodeInvalidRequest, service.ErrIndexOutOfRange.Error())
	case errors.Is(err, service.ErrUsernameTooShort),
		errors.Is(err, service.ErrUsernameTooLong),
		errors.Is(err, service.ErrUsernameCharset):
		writeError(res, http.StatusBadRequest, models.CodeInvalidRequest, err.Error())
	default:
		writeError(res, http.StatusInternalServerError, models.CodeInternalError, "")
	}
}

// CreateProfile claims a slug for the caller.
func (h *PostHandler) CreateProfile(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.CreateProfileRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	profile, err := h.profiles.CreateProfile(req.Context(), userID, body.Slug, body.DisplayName, body.Bio)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, profile)
}

// UpdateProfile writes display fields on the caller's profile.
func (h *PostHandler) UpdateProfile(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.UpdateProfileRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	profile, err := h.profiles.UpdateProfile(req.Context(), userID, body.DisplayName, body.Bio, body.AvatarURL)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, profile)
}

// AddLink appends a link to the caller's profile.
func (h *PostHandler) AddLink(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.CreateLinkRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	link, err := h.links.AddLink(req.Context(), userID, body.Title, body.URL)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, link)
}

// UpdateLink edits one owned link.
func (h *PostHandler) UpdateLink(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.UpdateLinkRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	link, err := h.links.UpdateLink(req.Context(), userID, chi.URLParam(req, "linkID"), body.Title, body.URL)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, link)
}

// ReorderLinks moves one link and persists the dense renumbering.
func (h *PostHandler) ReorderLinks(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.ReorderRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	links, err := h.links.ReorderLinks(req.Context(), userID, body.From, body.To)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, links)
}

// AddDrop appends a drop to the caller's profile.
func (h *PostHandler) AddDrop(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.CreateDropRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	drop, err := h.drops.AddDrop(req.Context(), userID, body.Title, body.Description)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, drop)
}

// UpdateDrop edits one owned drop.
func (h *PostHandler) UpdateDrop(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.UpdateDropRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	drop, err := h.drops.UpdateDrop(req.Context(), userID, chi.URLParam(req, "dropID"), body.Title, body.Description)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, drop)
}

// ReorderDrops mirrors ReorderLinks for drops.
func (h *PostHandler) ReorderDrops(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.ReorderRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	drops, err := h.drops.ReorderDrops(req.Context(), userID, body.From, body.To)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, drops)
}

// Submit stores a visitor-uploaded file into a drop. The endpoint is
// public; the file lands in the profile owner's namespace.
func (h *PostHandler) Submit(res http.ResponseWriter, req *http.Request) {
	slug := chi.URLParam(req, "slug")
	dropID := chi.URLParam(req, "dropID")

	if err := req.ParseMultipartForm(32 << 20); err != nil {
		writeError(res, http.StatusBadRequest, models.CodeInvalidRequest, "Expected multipart form upload")
		return
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		writeError(res, http.StatusBadRequest, models.CodeInvalidRequest, "Missing file field")
		return
	}
	defer file.Close()

	submission, err := h.drops.Submit(req.Context(), slug, dropID, header.Filename, file)
	if err != nil {
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, submission)
}

// MFASetup generates a fresh TOTP secret for enrollment.
func (h *PostHandler) MFASetup(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	secret, url, err := h.mfa.GenerateSecret(userID)
	if err != nil {
		h.logger.Error("TOTP secret generation failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, models.CodeInternalError, "")
		return
	}

	writeJSON(res, http.StatusOK, models.MFASetupResponse{Secret: secret, OTPAuthURL: url})
}

// MFAEnroll verifies the first code and persists the factor.
func (h *PostHandler) MFAEnroll(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.EnrollMFARequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	factor, err := h.mfa.Enroll(req.Context(), userID, body.Secret, body.Code, body.FriendlyName)
	if err != nil {
		if errors.Is(err, service.ErrCodeInvalid) {
			writeError(res, http.StatusUnauthorized, models.CodeMFACodeInvalid, "Invalid MFA code")
			return
		}
		writeServiceError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, factor)
}

// MFAVerify checks a code against the caller's first enrolled factor
// and, on success, issues an aal2 session token.
func (h *PostHandler) MFAVerify(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	var body models.MFAVerifyRequest
	if !h.decodeOrFail(res, req, &body) {
		return
	}

	factors, err := h.mfa.Factors(req.Context(), userID)
	if err != nil {
		writeError(res, http.StatusInternalServerError, models.CodeMFAVerificationFailed, "")
		return
	}
	if len(factors) == 0 {
		writeError(res, http.StatusForbidden, models.CodeMFANotEnabled, "No MFA factor enrolled")
		return
	}

	challengeID, err := h.mfa.Challenge(factors[0])
	if err != nil {
		writeError(res, http.StatusInternalServerError, models.CodeMFAChallengeFailed, "")
		return
	}

	if err := h.mfa.Verify(challengeID, body.Code); err != nil {
		writeError(res, http.StatusUnauthorized, models.CodeMFACodeInvalid, "Invalid MFA code")
		return
	}

	token, err := h.sessions.ElevateToAAL2(req.Context(), userID, req.Header.Get("X-Real-IP"))
	if err != nil {
		h.logger.Error("aal2 elevation failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, models.CodeInternalError, "")
		return
	}

	writeJSON(res, http.StatusOK, models.TokenResponse{Token: token})
}

// BillingCheckout creates a premium checkout session.
func (h *PostHandler) BillingCheckout(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	url, err := h.billing.CheckoutURL(req.Context(), userID)
	if err != nil {
		h.logger.Error("checkout session failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, models.CodeInternalError, "Could not start checkout")
		return
	}

	writeJSON(res, http.StatusOK, models.BillingSessionResponse{URL: url})
}

// BillingPortal creates a billing-portal session.
func (h *PostHandler) BillingPortal(res http.ResponseWriter, req *http.Request) {
	userID, ok := userIDFrom(req)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	url, err := h.billing.PortalURL(req.Context(), userID)
	if err != nil {
		h.logger.Error("portal session failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, models.CodeInternalError, "Could not open billing portal")
		return
	}

	writeJSON(res, http.StatusOK, models.BillingSessionResponse{URL: url})
}
