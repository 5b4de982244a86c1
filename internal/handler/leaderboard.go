package handler

import (
	"log"
	"net/http"
	"strconv"

	"campusmantri/internal/cache"
	"campusmantri/internal/httputil"
	"campusmantri/internal/repository"
)

const defaultLeaderboardLimit = 10

// LeaderboardHandler serves the progress leaderboard maintained by the
// activity workers.
type LeaderboardHandler struct {
	leaderboard cache.Leaderboard
	profiles    repository.ProfileRepository
}

func NewLeaderboardHandler(leaderboard cache.Leaderboard, profiles repository.ProfileRepository) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		profiles:    profiles,
	}
}

type leaderboardRow struct {
	AuthUID    string `json:"auth_uid"`
	FullName   string `json:"full_name"`
	College    string `json:"college"`
	PostsCount int    `json:"posts_count"`
}

// Top returns the highest-progress mantris
// GET /leaderboard?limit=N
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			httputil.WriteBadRequest(w, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to load leaderboard")
		return
	}

	rows := make([]leaderboardRow, 0, len(entries))
	for _, entry := range entries {
		profile, err := h.profiles.FindByAuthUID(r.Context(), entry.AuthUID)
		if err != nil {
			log.Printf("[Leaderboard] Failed to hydrate entry for %s: %v", entry.AuthUID, err)
			continue
		}
		if profile == nil {
			// Score outlived the profile row; the worker prunes these lazily.
			continue
		}
		rows = append(rows, leaderboardRow{
			AuthUID:    entry.AuthUID,
			FullName:   profile.FullName,
			College:    profile.College,
			PostsCount: entry.PostsCount,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, rows)
}
