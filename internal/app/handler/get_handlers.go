package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/middleware"
	"github.com/linkdropapp/linkdrop/internal/models"
	"github.com/linkdropapp/linkdrop/internal/storage"
)

// Pinger is the ops surface of the store used by health and stats.
type Pinger interface {
	PingContext(context.Context) error
	Totals(context.Context) (*storage.Totals, error)
}

// ObjectOpener streams stored submission files.
type ObjectOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type GetHandler struct {
	profiles *service.ProfileService
	links    *service.LinksService
	drops    *service.DropsService
	slugs    service.SlugChecker
	pinger   Pinger
	objects  ObjectOpener
	logger   *zap.Logger
}

func NewGet(profiles *service.ProfileService, links *service.LinksService, drops *service.DropsService,
	slugs service.SlugChecker, pinger Pinger, objects ObjectOpener, logger *zap.Logger) *GetHandler {
	return &GetHandler{
		profiles: profiles,
		links:    links,
		drops:    drops,
		slugs:    slugs,
		pinger:   pinger,
		objects:  objects,
		logger:   logger,
	}
}

// PublicProfile serves the public page payload for one slug.
func (h *GetHandler) PublicProfile(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	slug := chi.URLParam(req, "slug")

	profile, links, drops, err := h.profiles.PublicProfile(ctx, slug)
	if err != nil {
		http.Error(res, "Profile not found", http.StatusNotFound)
		return
	}

	writeJSON(res, http.StatusOK, models.PublicProfileResponse{
		Profile: *profile,
		Links:   links,
		Drops:   drops,
	})
}

// Redirect records a click and forwards the visitor to the link target.
func (h *GetHandler) Redirect(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	slug := chi.URLParam(req, "slug")
	linkID := chi.URLParam(req, "linkID")

	target, err := h.links.RecordRedirect(ctx, slug, linkID, req.Referer())
	if err != nil {
		http.Error(res, "Link not found", http.StatusNotFound)
		return
	}

	res.Header().Set("Location", target)
	res.WriteHeader(http.StatusTemporaryRedirect)
}

// Availability checks whether a username is free. Format violations are
// reported without touching the store.
func (h *GetHandler) Availability(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	result := service.CheckUsernameNow(ctx, h.slugs, req.URL.Query().Get("username"))

	writeJSON(res, http.StatusOK, models.AvailabilityResponse{
		Available: result.Available,
		Error:     result.Err,
	})
}

// MyProfile returns the caller's own profile.
func (h *GetHandler) MyProfile(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := req.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	profile, err := h.profiles.ProfileForUser(ctx, userID)
	if err != nil {
		http.Error(res, "Profile not found", http.StatusNotFound)
		return
	}

	writeJSON(res, http.StatusOK, profile)
}

// Links returns the caller's links in display order.
func (h *GetHandler) Links(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := req.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	links, err := h.links.Links(ctx, userID)
	if err != nil {
		http.Error(res, "Profile not found", http.StatusNotFound)
		return
	}

	writeJSON(res, http.StatusOK, links)
}

// Drops returns the caller's drops in display order.
func (h *GetHandler) Drops(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := req.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	drops, err := h.drops.Drops(ctx, userID)
	if err != nil {
		http.Error(res, "Profile not found", http.StatusNotFound)
		return
	}

	writeJSON(res, http.StatusOK, drops)
}

// Submissions lists the caller's received files with public URLs.
func (h *GetHandler) Submissions(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID, ok := req.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		writeError(res, http.StatusUnauthorized, models.CodeUnauthorized, "")
		return
	}

	subs, urls, err := h.drops.Submissions(ctx, userID)
	if err != nil {
		http.Error(res, "Profile not found", http.StatusNotFound)
		return
	}

	writeJSON(res, http.StatusOK, models.SubmissionsResponse{
		Submissions: subs,
		URLs:        urls,
	})
}

// ServeObject streams one stored submission file.
func (h *GetHandler) ServeObject(res http.ResponseWriter, req *http.Request) {
	owner := chi.URLParam(req, "owner")
	name := chi.URLParam(req, "name")

	reader, err := h.objects.Open(req.Context(), owner+"/"+name)
	if err != nil {
		http.Error(res, "File not found", http.StatusNotFound)
		return
	}
	defer reader.Close()

	if _, err := io.Copy(res, reader); err != nil {
		h.logger.Error("object stream failed", zap.Error(err))
	}
}

// PingDB reports storage connectivity.
func (h *GetHandler) PingDB(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()
	if err := h.pinger.PingContext(ctx); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// Stats serves aggregate counts to the trusted subnet.
func (h *GetHandler) Stats(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	totals, err := h.pinger.Totals(ctx)
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(res, http.StatusOK, models.StatsResponse{
		Profiles: totals.Profiles,
		Links:    totals.Links,
		Drops:    totals.Drops,
	})
}
