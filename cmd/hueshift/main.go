package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"

	"github.com/rnarayan/hueshift/internal/app"
	"github.com/rnarayan/hueshift/internal/capture"
	"github.com/rnarayan/hueshift/internal/render"
	"github.com/rnarayan/hueshift/internal/server"
	"github.com/rnarayan/hueshift/internal/store"
	"github.com/rnarayan/hueshift/internal/ui"
)

func main() {
	var (
		videoPath = flag.String("video", "", "video file to track; uses the camera when empty")
		cameraID  = flag.Int("camera", 0, "camera device ID")
		addr      = flag.String("addr", ":8080", "HTTP listen address for the stream and control API")
		dbPath    = flag.String("db", defaultDBPath(), "SQLite database path; empty disables session recording")
		headless  = flag.Bool("headless", false, "run without a display window")
		throttle  = flag.Duration("throttle", 33*time.Millisecond, "frame pacing in headless mode")
	)
	flag.Parse()

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	var source capture.Source
	if *videoPath != "" {
		source = capture.NewFile(*videoPath)
	} else {
		source = capture.NewCamera(*cameraID)
	}

	var st *store.Store
	if *dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
			slog.Error("creating data directory", "path", filepath.Dir(*dbPath), "error", err)
			os.Exit(1)
		}
		var err error
		st, err = store.New(*dbPath)
		if err != nil {
			slog.Error("opening store", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		slog.Info("session recording enabled", "db", *dbPath)
	}

	events := ui.NewQueue(0)

	var frames app.FramePublisher
	var regions app.RegionPublisher
	if *addr != "" {
		buf := server.NewFrameBuffer()
		srv := server.New(server.Config{
			Store:  st,
			Frames: buf,
			Events: events,
		})
		frames = buf
		regions = srv.Control()

		go func() {
			slog.Info("http server listening", "addr", *addr)
			if err := srv.ListenAndServe(*addr); err != nil {
				slog.Error("http server failed", "error", err)
			}
		}()
	}

	var display *render.Display
	if !*headless {
		var err error
		display, err = render.NewDisplay("HueShift")
		if err != nil {
			slog.Error("opening display window", "error", err)
			os.Exit(1)
		}
		defer display.Close()
	}

	tracker := app.New(app.Config{
		Source:   source,
		Display:  display,
		Events:   events,
		Store:    st,
		Frames:   frames,
		Regions:  regions,
		Throttle: *throttle,
	})

	if err := tracker.Run(); err != nil {
		slog.Error("tracker stopped", "error", err)
		os.Exit(1)
	}
}

// defaultDBPath is ~/.hueshift/hueshift.db, or empty when the home
// directory cannot be determined.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hueshift", "hueshift.db")
}
