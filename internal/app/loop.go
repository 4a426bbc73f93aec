package app

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/rnarayan/hueshift/internal/capture"
	"github.com/rnarayan/hueshift/internal/histogram"
	"github.com/rnarayan/hueshift/internal/render"
	"github.com/rnarayan/hueshift/internal/store"
	"github.com/rnarayan/hueshift/internal/track"
	"github.com/rnarayan/hueshift/internal/ui"
)

// Run drives the capture-select-track loop until the source is exhausted
// or a quit key arrives. It owns the source for its lifetime.
func (a *App) Run() error {
	if err := a.config.Source.Open(); err != nil {
		return fmt.Errorf("opening %s: %w", a.config.Source.Describe(), err)
	}
	defer a.config.Source.Close()
	defer a.closeFrozen()
	defer a.closeHistogram()

	a.startSession()
	defer a.endSession()

	slog.Info("tracking loop started", "source", a.config.Source.Describe())

	for {
		if a.mode == modeSelecting {
			// The feed stays frozen while clicks are collected.
			a.present(*a.frozenView)
			quit := a.handleEvents(a.frozen)
			if a.mode != modeSelecting {
				a.closeFrozen()
			}
			if quit {
				return nil
			}
			continue
		}

		frame, err := a.config.Source.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrNoMoreFrames) {
				slog.Info("source exhausted", "frames", a.frameIndex)
				return nil
			}
			return fmt.Errorf("reading frame %d: %w", a.frameIndex, err)
		}

		if a.mode == modeTracking {
			a.trackFrame(frame)
		}

		a.present(*frame)
		quit := a.handleEvents(frame)
		if a.mode != modeSelecting {
			a.closeFrozen()
		}
		frame.Close()
		a.frameIndex++
		if quit {
			return nil
		}
	}
}

// trackFrame back-projects the hue histogram over the frame, runs one
// CamShift search from the current window, and annotates the frame with
// the tracked region.
func (a *App) trackFrame(frame *gocv.Mat) {
	prob, err := a.hist.BackProject(*frame)
	if err != nil {
		slog.Warn("back-projection failed", "frame", a.frameIndex, "error", err)
		return
	}
	defer prob.Close()

	pm, err := track.ProbMapFromMat(prob)
	if err != nil {
		slog.Warn("probability map conversion failed", "frame", a.frameIndex, "error", err)
		return
	}

	region, next := track.CamShift(pm, a.window, a.crit)
	a.window = next

	render.DrawRegion(frame, region)

	if a.config.Regions != nil {
		a.config.Regions.PublishRegion(a.frameIndex, region)
	}
	if a.config.Store != nil && a.selectionID != "" {
		a.logStoreErr("track point", a.config.Store.TrackPoints().Add(&store.TrackPoint{
			SelectionID: a.selectionID,
			FrameIndex:  a.frameIndex,
			CX:          region.CenterX,
			CY:          region.CenterY,
			Width:       region.Width,
			Height:      region.Height,
			Angle:       region.Angle,
			RecordedAt:  time.Now(),
		}))
	}
}

// present pushes the frame to the publisher and the display window. Window
// key presses are fed into the event queue so all input flows one path.
func (a *App) present(frame gocv.Mat) {
	if a.config.Frames != nil {
		if err := a.config.Frames.Publish(frame); err != nil {
			slog.Warn("frame publish failed", "frame", a.frameIndex, "error", err)
		}
	}

	if a.config.Display != nil {
		a.config.Display.Show(frame)
		if k := a.config.Display.PollKey(1); k >= 0 {
			a.config.Events.Push(ui.Key(rune(k)))
		}
		return
	}

	// Headless: PollKey normally paces the loop, so sleep instead. The
	// selecting branch re-presents the same frozen frame each pass and
	// would otherwise spin.
	if a.config.Throttle > 0 {
		time.Sleep(a.config.Throttle)
	} else if a.mode == modeSelecting {
		time.Sleep(time.Millisecond)
	}
}

// handleEvents drains the queue and applies each event. It reports whether
// a quit was requested. frame is the most recent pristine frame, used to
// seed a selection.
func (a *App) handleEvents(frame *gocv.Mat) bool {
	for _, e := range a.config.Events.Drain() {
		switch e.Kind {
		case ui.KindKey:
			switch e.Key {
			case KeyQuit:
				slog.Info("quit requested")
				return true
			case KeySelect:
				a.beginSelection(frame)
			}
		case ui.KindClick:
			a.handleClick(e.X, e.Y)
		}
	}
	return false
}

// beginSelection freezes the current frame and starts collecting clicks.
// Pressing the select key again restarts the selection on a fresh frame.
func (a *App) beginSelection(frame *gocv.Mat) {
	// Clone before releasing: frame may be the frozen frame itself when
	// the select key restarts an in-progress selection.
	frozen := frame.Clone()
	view := frame.Clone()
	a.closeFrozen()
	a.frozen = &frozen
	a.frozenView = &view
	a.selector.Begin()
	a.mode = modeSelecting
	slog.Info("selection started", "frame", a.frameIndex)
}

func (a *App) handleClick(x, y int) {
	if a.mode != modeSelecting {
		return
	}
	if a.selector.AddPoint(x, y) {
		render.DrawMarker(a.frozenView, image.Pt(x, y))
	}
	if a.selector.Complete() {
		a.finishSelection()
	}
}

// finishSelection derives the box from the collected corners and builds
// the hue histogram from the pristine frozen frame. A degenerate box
// restarts the selection rather than aborting it.
func (a *App) finishSelection() {
	box, err := a.selector.Box()
	if err != nil {
		slog.Warn("degenerate selection, starting over", "error", err)
		a.frozenView.Close()
		view := a.frozen.Clone()
		a.frozenView = &view
		a.selector.Begin()
		return
	}

	hist, err := histogram.Build(*a.frozen, box)
	if err != nil {
		slog.Warn("histogram build failed, starting over", "box", box, "error", err)
		a.frozenView.Close()
		view := a.frozen.Clone()
		a.frozenView = &view
		a.selector.Begin()
		return
	}

	a.closeHistogram()
	a.hist = hist
	a.window = box
	a.mode = modeTracking
	a.recordSelection(box)
	slog.Info("tracking started", "box", box)
}

func (a *App) startSession() {
	if a.config.Store == nil {
		return
	}
	sess := &store.Session{
		ID:     uuid.NewString(),
		Source: a.config.Source.Describe(),
	}
	if err := a.config.Store.Sessions().Create(sess); err != nil {
		a.logStoreErr("session create", err)
		return
	}
	a.sessionID = sess.ID
}

func (a *App) endSession() {
	if a.config.Store == nil || a.sessionID == "" {
		return
	}
	a.logStoreErr("session end", a.config.Store.Sessions().End(a.sessionID, time.Now()))
}

func (a *App) recordSelection(box image.Rectangle) {
	a.selectionID = ""
	if a.config.Store == nil || a.sessionID == "" {
		return
	}
	sel := &store.Selection{
		ID:        uuid.NewString(),
		SessionID: a.sessionID,
		Box:       box,
	}
	if err := a.config.Store.Selections().Create(sel); err != nil {
		a.logStoreErr("selection create", err)
		return
	}
	a.selectionID = sel.ID
}
