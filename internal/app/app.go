// Package app wires the HueShift tracking pipeline: frame source, region
// selection, histogram back-projection, CamShift search, and rendering.
package app

import (
	"image"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/rnarayan/hueshift/internal/capture"
	"github.com/rnarayan/hueshift/internal/histogram"
	"github.com/rnarayan/hueshift/internal/render"
	"github.com/rnarayan/hueshift/internal/roi"
	"github.com/rnarayan/hueshift/internal/store"
	"github.com/rnarayan/hueshift/internal/track"
	"github.com/rnarayan/hueshift/internal/ui"
)

// Key bindings, matching the classic interactive tracker.
const (
	KeySelect = 'i'
	KeyQuit   = 'q'
)

// FramePublisher receives each annotated frame, e.g. for the MJPEG stream.
type FramePublisher interface {
	Publish(frame gocv.Mat) error
}

// RegionPublisher receives tracked-region updates, e.g. for broadcasting
// to control clients.
type RegionPublisher interface {
	PublishRegion(frameIndex int, region track.OrientedRect)
}

// Config holds the application configuration. Nil collaborators disable
// the corresponding side channel.
type Config struct {
	Source  capture.Source
	Display *render.Display
	Events  *ui.Queue
	Store   *store.Store
	Frames  FramePublisher
	Regions RegionPublisher

	// Throttle paces the loop when no display window provides the
	// per-frame key-poll delay (headless mode).
	Throttle time.Duration
}

// mode is the main loop's state.
type mode int

const (
	// modeIdle means no region is selected and frames pass through.
	modeIdle mode = iota
	// modeSelecting means the feed is frozen while clicks are collected.
	modeSelecting
	// modeTracking means a histogram exists and every frame is tracked.
	modeTracking
)

// App is the interactive hue tracker. It owns all selection and tracking
// state; input reaches it exclusively through the event queue.
type App struct {
	config   Config
	selector *roi.Selector
	crit     track.TermCriteria

	mode       mode
	hist       *histogram.HueHistogram
	window     image.Rectangle
	frameIndex int

	// frozen is the pristine frame captured when selection began;
	// frozenView is the copy that selection markers are drawn on.
	frozen     *gocv.Mat
	frozenView *gocv.Mat

	sessionID   string
	selectionID string
}

// New creates a new App with the given configuration.
func New(config Config) *App {
	if config.Events == nil {
		config.Events = ui.NewQueue(0)
	}

	return &App{
		config:   config,
		selector: roi.NewSelector(),
		crit:     track.DefaultTermCriteria(),
		mode:     modeIdle,
	}
}

// Events returns the input event queue consumed by the main loop.
func (a *App) Events() *ui.Queue {
	return a.config.Events
}

// closeFrozen releases the frozen selection frames, if any.
func (a *App) closeFrozen() {
	if a.frozen != nil {
		a.frozen.Close()
		a.frozen = nil
	}
	if a.frozenView != nil {
		a.frozenView.Close()
		a.frozenView = nil
	}
}

// closeHistogram releases the current histogram, if any.
func (a *App) closeHistogram() {
	if a.hist != nil {
		a.hist.Close()
		a.hist = nil
	}
}

func (a *App) logStoreErr(op string, err error) {
	if err != nil {
		slog.Warn("session recording failed", "op", op, "error", err)
	}
}
