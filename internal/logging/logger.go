// Package logging builds the structured logger used by the mixdl binaries
// and turns pipeline events into log entries.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/handiism/mixdl/internal/download"
)

// NewLogger creates a new [log.Logger] writing to w with timestamps enabled.
//
// The writer defaults to [os.Stderr]. debug lowers the level to [log.DebugLevel].
func NewLogger(w io.Writer, debug bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "mixdl",
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Observer returns a pipeline event handler that logs every event.
//
// Progress ticks and other verbose events are logged at debug level.
func Observer(logger *log.Logger) func(download.Event) {
	return func(event download.Event) {
		kv := []any{"kind", event.Kind.String()}
		if event.Track != nil {
			kv = append(kv, "track", event.Track.ID)
		}
		if event.Kind == download.EventTrackProgress {
			kv = append(kv, "percent", event.Percent)
		}
		if event.Delay > 0 {
			kv = append(kv, "delay", event.Delay)
		}
		if event.Err != nil {
			kv = append(kv, "err", event.Err)
		}

		l := logger.With("session", shortID(event))
		switch event.Level {
		case download.LevelVerbose:
			l.Debug(event.Message, kv...)
		case download.LevelWarning:
			l.Warn(event.Message, kv...)
		case download.LevelError:
			l.Error(event.Message, kv...)
		default:
			l.Info(event.Message, kv...)
		}
	}
}

func shortID(event download.Event) string {
	id := event.Session.String()
	return id[:8]
}
