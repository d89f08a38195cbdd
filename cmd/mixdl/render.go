package main

import (
	"fmt"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/handiism/mixdl/internal/download"
	ioutils "github.com/handiism/mixdl/internal/io"
)

// renderer draws one progress bar per track and forwards every other event
// to the log observer.
type renderer struct {
	observe func(download.Event)
	bar     *progressbar.ProgressBar
	count   int
}

func newRenderer(observe func(download.Event)) *renderer {
	return &renderer{observe: observe}
}

func (r *renderer) consume(events <-chan download.Event) {
	for event := range events {
		r.handle(event)
	}
	r.finishBar()
}

func (r *renderer) handle(event download.Event) {
	switch event.Kind {
	case download.EventTrackStart:
		r.finishBar()
		r.count++
		r.bar = progressbar.NewOptions(
			100,
			progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan][%d][reset] %s", r.count, ioutils.SanitizeFileName(event.Track.FileName))),
		)
	case download.EventTrackProgress:
		if r.bar != nil {
			r.bar.Set(event.Percent)
		}
	case download.EventTrackDone, download.EventCooldown:
		r.finishBar()
	}

	r.observe(event)
}

func (r *renderer) finishBar() {
	if r.bar == nil {
		return
	}
	r.bar.Finish()
	fmt.Println()
	r.bar = nil
}
