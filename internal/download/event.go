package download

import (
	"time"

	"github.com/google/uuid"

	"github.com/handiism/mixdl/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// EventKind identifies the pipeline step an Event reports on.
type EventKind int

const (
	EventSessionStart EventKind = iota
	EventCoverArt
	EventTrackStart
	EventTrackProgress
	EventTagging
	EventTagFailed
	EventTrackDone
	EventDwell
	EventReport
	EventCooldown
	EventSkip
	EventPlaylist
)

var eventKindNames = map[EventKind]string{
	EventSessionStart:  "session_start",
	EventCoverArt:      "cover_art",
	EventTrackStart:    "track_start",
	EventTrackProgress: "track_progress",
	EventTagging:       "tagging",
	EventTagFailed:     "tag_failed",
	EventTrackDone:     "track_done",
	EventDwell:         "dwell",
	EventReport:        "report",
	EventCooldown:      "cooldown",
	EventSkip:          "skip",
	EventPlaylist:      "playlist",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a progress notification emitted by the Pipeline.
//
// Events are delivered synchronously on the pipeline goroutine, in order.
// Handlers must not block for long.
type Event struct {
	Kind    EventKind
	Level   ProgressLevel
	Message string

	// Session is the id of the run that emitted the event.
	Session uuid.UUID

	// Track is set for track level events.
	Track *model.Track

	// Percent is set for EventTrackProgress.
	Percent int

	// Delay is set for EventCooldown and EventDwell.
	Delay time.Duration

	// Err carries the cause of warnings (cover art, tagging, skips, cooldowns).
	Err error
}
