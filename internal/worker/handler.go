package worker

import (
	"context"
	"fmt"
	"log"

	"campusmantri/internal/cache"
	"campusmantri/internal/model"
	"campusmantri/internal/queue"
)

// ProfileProvider is the slice of the profile repository the worker needs.
type ProfileProvider interface {
	FindByAuthUID(ctx context.Context, authUID string) (*model.Profile, error)
}

// Handler applies activity events to the progress leaderboard.
type Handler struct {
	leaderboard cache.Leaderboard
	profiles    ProfileProvider
}

// NewHandler wires the event handler.
func NewHandler(leaderboard cache.Leaderboard, profiles ProfileProvider) *Handler {
	return &Handler{
		leaderboard: leaderboard,
		profiles:    profiles,
	}
}

// HandleEvent processes a single activity event. Counts come from a fresh
// profile read rather than from the event payload, so replays and reordered
// deliveries still converge on the stored truth.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ActivityEvent) error {
	switch event.Type {
	case queue.EventProfileCreated:
		return h.handleProfileCreated(ctx, event)
	case queue.EventDaySubmitted:
		return h.handleDaySubmitted(ctx, event)
	case queue.EventIntroAcknowledged, queue.EventGfgProfileLinked:
		// No leaderboard effect; external consumers may care, we don't.
		return nil
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return nil
	}
}

func (h *Handler) handleProfileCreated(ctx context.Context, event queue.ActivityEvent) error {
	if err := h.leaderboard.SetScore(ctx, event.AuthUID, 0); err != nil {
		return fmt.Errorf("seed leaderboard entry: %w", err)
	}
	return nil
}

func (h *Handler) handleDaySubmitted(ctx context.Context, event queue.ActivityEvent) error {
	profile, err := h.profiles.FindByAuthUID(ctx, event.AuthUID)
	if err != nil {
		return fmt.Errorf("load profile for leaderboard: %w", err)
	}
	if profile == nil {
		// Row corrected away outside the app; drop the stale entry.
		return h.leaderboard.Remove(ctx, event.AuthUID)
	}

	if err := h.leaderboard.SetScore(ctx, event.AuthUID, profile.DailyPostsCount); err != nil {
		return fmt.Errorf("update leaderboard entry: %w", err)
	}
	return nil
}
