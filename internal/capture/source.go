// Package capture provides frame sources backed by GoCV (OpenCV) video capture.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera resolution, kept modest for tracking latency.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrNotOpen is returned when reading from a source that is not open.
var ErrNotOpen = errors.New("source is not open")

// ErrNoMoreFrames is returned when a source is exhausted. A video file
// signals this at end of stream; the main loop treats it as a normal stop.
var ErrNoMoreFrames = errors.New("no more frames")

// Source defines the interface for sequential frame suppliers.
// The source exclusively owns the underlying device; the main loop is the
// only consumer and releases it via Close on exit or exhaustion.
type Source interface {
	Open() error
	Close() error

	// ReadFrame reads the next frame. The caller is responsible for
	// closing the returned Mat.
	ReadFrame() (*gocv.Mat, error)

	IsOpen() bool

	// Describe returns a human-readable identifier for the source,
	// recorded with tracking sessions.
	Describe() string
}

// cameraSource captures frames from a camera device.
type cameraSource struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
}

// NewCamera creates a Source reading from the camera with the given device ID.
func NewCamera(deviceID int) Source {
	return &cameraSource{deviceID: deviceID}
}

// Open opens the camera device. It sets the resolution to 640x480.
func (c *cameraSource) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases the device.
func (c *cameraSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// A failed or empty read is reported as ErrNoMoreFrames since a camera that
// stops delivering frames is indistinguishable from an exhausted stream.
func (c *cameraSource) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("camera %d: %w", c.deviceID, ErrNoMoreFrames)
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d: %w", c.deviceID, ErrNoMoreFrames)
	}

	return &mat, nil
}

func (c *cameraSource) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *cameraSource) Describe() string {
	return fmt.Sprintf("camera:%d", c.deviceID)
}

// fileSource reads frames from a video file.
type fileSource struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewFile creates a Source reading sequential frames from the video file
// at the given path.
func NewFile(path string) Source {
	return &fileSource{path: path}
}

// Open opens the video file for reading.
func (f *fileSource) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(f.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", f.path, err)
	}

	f.capture = capture
	f.running = true

	return nil
}

// Close closes the video file.
func (f *fileSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running || f.capture == nil {
		f.running = false
		return nil
	}

	err := f.capture.Close()
	f.capture = nil
	f.running = false

	return err
}

// ReadFrame reads the next frame from the video file.
// Returns an error wrapping ErrNoMoreFrames at end of stream.
func (f *fileSource) ReadFrame() (*gocv.Mat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running || f.capture == nil {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	if ok := f.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("video %s: %w", f.path, ErrNoMoreFrames)
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("video %s: %w", f.path, ErrNoMoreFrames)
	}

	return &mat, nil
}

func (f *fileSource) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fileSource) Describe() string {
	return "video:" + f.path
}
