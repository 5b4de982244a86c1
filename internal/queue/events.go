package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the activity stream
const (
	EventProfileCreated    = "profile_created"
	EventIntroAcknowledged = "intro_acknowledged"
	EventDaySubmitted      = "day_submitted"
	EventGfgProfileLinked  = "gfg_profile_linked"
)

// Stream names
const (
	StreamActivity = "stream:activity"
)

// Consumer group name for activity workers
const (
	ConsumerGroupActivity = "activity_workers"
)

// ActivityEvent records a program-relevant profile mutation. Organizer-side
// tooling (the progress leaderboard worker in this repo, plus any external
// verification consumers) reads these off the stream.
type ActivityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred
	AuthUID   string `json:"auth_uid"`

	// Day submission events
	Day        int  `json:"day,omitempty"`
	Cleared    bool `json:"cleared,omitempty"`     // true when the slot was emptied
	PostsCount int  `json:"posts_count,omitempty"` // daily_posts_count after the write
}

// NewProfileCreatedEvent marks a completed onboarding (or a pending-profile
// reconciliation at first login).
func NewProfileCreatedEvent(authUID string) ActivityEvent {
	return ActivityEvent{
		Type:      EventProfileCreated,
		Timestamp: time.Now().Unix(),
		AuthUID:   authUID,
	}
}

// NewIntroAcknowledgedEvent marks the one-time program_read flip.
func NewIntroAcknowledgedEvent(authUID string) ActivityEvent {
	return ActivityEvent{
		Type:      EventIntroAcknowledged,
		Timestamp: time.Now().Unix(),
		AuthUID:   authUID,
	}
}

// NewDaySubmittedEvent marks a day-slot write. The worker re-reads the
// profile for the authoritative count; PostsCount here is informational.
func NewDaySubmittedEvent(authUID string, day int, cleared bool, postsCount int) ActivityEvent {
	return ActivityEvent{
		Type:       EventDaySubmitted,
		Timestamp:  time.Now().Unix(),
		AuthUID:    authUID,
		Day:        day,
		Cleared:    cleared,
		PostsCount: postsCount,
	}
}

// NewGfgProfileLinkedEvent marks a GfG Connect profile link save.
func NewGfgProfileLinkedEvent(authUID string) ActivityEvent {
	return ActivityEvent{
		Type:      EventGfgProfileLinked,
		Timestamp: time.Now().Unix(),
		AuthUID:   authUID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ActivityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseActivityEvent parses an ActivityEvent from Redis stream message values.
func ParseActivityEvent(values map[string]interface{}) (ActivityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ActivityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
