package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campusmantri/internal/httputil"
	"campusmantri/internal/model"
	"campusmantri/internal/service"
	"campusmantri/internal/transport/http/middleware"
)

// ProfileHandler groups mantri profile endpoints and their dependencies.
type ProfileHandler struct {
	profileService  *service.ProfileService
	identityService *service.IdentityService
}

// NewProfileHandler wires dependencies for profile endpoints.
func NewProfileHandler(profileService *service.ProfileService, identityService *service.IdentityService) *ProfileHandler {
	return &ProfileHandler{
		profileService:  profileService,
		identityService: identityService,
	}
}

// gateResponse is returned by GET /gate. The client routes on state alone;
// profile and completed_count save it a second round trip.
type gateResponse struct {
	State          string         `json:"state"`
	Profile        *model.Profile `json:"profile,omitempty"`
	CompletedCount int            `json:"completed_count"`
}

type dayRequest struct {
	URL string `json:"url"`
}

type gfgRequest struct {
	URL string `json:"url"`
}

// Gate reports where the authenticated user stands in the program flow
// GET /gate
func (h *ProfileHandler) Gate(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	state, profile := h.profileService.Resolve(r.Context(), identity)

	httputil.WriteJSON(w, http.StatusOK, gateResponse{
		State:          string(state),
		Profile:        profile,
		CompletedCount: h.profileService.CompletedCount(profile),
	})
}

// GetProfile returns the authenticated user's profile row
// GET /profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	authUID, ok := middleware.GetAuthUIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	profile, err := h.profileService.GetByAuthUID(r.Context(), authUID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to get profile")
		return
	}
	if profile == nil {
		httputil.WriteNotFound(w, "Profile not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Onboard creates the mantri profile from the onboarding form
// POST /profile
func (h *ProfileHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	profile, err := h.profileService.Onboard(r.Context(), identity, &req)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			httputil.WriteValidationError(w, verr.Fields)
		case errors.Is(err, model.ErrProfileExists):
			httputil.WriteConflict(w, "Profile already exists")
		default:
			httputil.WriteInternalError(w, "Failed to save profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, profile)
}

// AcknowledgeIntro marks the program introduction as read
// POST /profile/intro
func (h *ProfileHandler) AcknowledgeIntro(w http.ResponseWriter, r *http.Request) {
	authUID, ok := middleware.GetAuthUIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.profileService.AcknowledgeIntro(r.Context(), authUID); err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			httputil.WriteNotFound(w, "Profile not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Program introduction acknowledged",
	})
}

// SaveDay stores or clears a daily post link
// PUT /profile/days/{day}
func (h *ProfileHandler) SaveDay(w http.ResponseWriter, r *http.Request) {
	authUID, ok := middleware.GetAuthUIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		httputil.WriteBadRequest(w, "Day must be a number between 1 and 7")
		return
	}

	var req dayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	profile, err := h.profileService.SaveDay(r.Context(), authUID, day, req.URL)
	if err != nil {
		var dup *model.DuplicateDayError
		switch {
		case errors.Is(err, model.ErrInvalidDay):
			httputil.WriteBadRequest(w, "Day must be a number between 1 and 7")
		case errors.As(err, &dup):
			httputil.WriteBadRequestWithCode(w, httputil.ErrCodeDuplicateDay,
				"This link is already submitted for day "+strconv.Itoa(dup.Other))
		case errors.Is(err, model.ErrProfileNotFound):
			httputil.WriteNotFound(w, "Profile not found")
		default:
			httputil.WriteInternalError(w, "Failed to save link")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// SaveGfg stores the GeeksforGeeks profile link
// PUT /profile/gfg
func (h *ProfileHandler) SaveGfg(w http.ResponseWriter, r *http.Request) {
	authUID, ok := middleware.GetAuthUIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req gfgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.profileService.SaveGfgProfileURL(r.Context(), authUID, req.URL); err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			httputil.WriteValidationError(w, verr.Fields)
		case errors.Is(err, model.ErrProfileNotFound):
			httputil.WriteNotFound(w, "Profile not found")
		default:
			httputil.WriteInternalError(w, "Failed to save link")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Profile link saved",
	})
}

// requireIdentity loads the full identity for the authenticated request.
func (h *ProfileHandler) requireIdentity(w http.ResponseWriter, r *http.Request) (*model.Identity, bool) {
	authUID, ok := middleware.GetAuthUIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return nil, false
	}

	identity, err := h.identityService.GetByAuthUID(r.Context(), authUID)
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			httputil.WriteUnauthorized(w, "Account no longer exists")
			return nil, false
		}
		httputil.WriteInternalError(w, "Failed to load account")
		return nil, false
	}
	return identity, true
}
