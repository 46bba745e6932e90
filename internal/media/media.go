package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// ErrNoCamera is returned by a Capturer when no camera can be opened.
var ErrNoCamera = errors.New("camera unavailable")

// Stream is a live local capture. Nothing read from it leaves the machine.
type Stream interface {
	Close() error
}

// Capturer opens capture devices.
type Capturer interface {
	Open(ctx context.Context, audio bool) (Stream, error)
}

// State is what the preview shows.
type State struct {
	VideoEnabled bool
	AudioEnabled bool
	CameraActive bool
	// CameraDisabled is set when the camera was requested but could not be
	// opened.
	CameraDisabled bool
}

// Controller owns the camera/microphone toggles and the preview stream
type Controller struct {
	capturer Capturer
	logger   *slog.Logger

	mu       sync.Mutex
	mounted  bool
	video    bool
	audio    bool
	stream   Stream
	disabled bool
}

// NewController returns a controller with both toggles on and nothing open
// until Mount.
func NewController(capturer Capturer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		capturer: capturer,
		logger:   logger,
		video:    true,
		audio:    true,
	}
}

// Mount starts the preview if video is enabled.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mounted = true
	if c.video && c.stream == nil {
		c.openLocked(ctx)
	}
}

// SetVideo toggles the camera. Failures to open leave the camera disabled
// and are not returned.
func (c *Controller) SetVideo(ctx context.Context, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.video = enabled
	if !enabled {
		c.closeLocked()
		c.disabled = false
		return
	}
	if c.mounted && c.stream == nil {
		c.openLocked(ctx)
	}
}

// SetAudio toggles the microphone flag.
func (c *Controller) SetAudio(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = enabled
}

// State returns the current toggles and preview status.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		VideoEnabled:   c.video,
		AudioEnabled:   c.audio,
		CameraActive:   c.stream != nil,
		CameraDisabled: c.disabled,
	}
}

// Close releases the stream and unmounts the controller.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = false
	c.closeLocked()
}

func (c *Controller) openLocked(ctx context.Context) {
	if c.capturer == nil {
		c.disabled = true
		return
	}
	stream, err := c.capturer.Open(ctx, c.audio)
	if err != nil {
		c.disabled = true
		c.logger.Debug("camera unavailable, preview disabled", "error", err)
		return
	}
	c.stream = stream
	c.disabled = false
}

func (c *Controller) closeLocked() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Close(); err != nil {
		c.logger.Debug("failed to close capture stream", "error", err)
	}
	c.stream = nil
}

// DeviceCapturer opens V4L-style device nodes, e.g. /dev/video0.
type DeviceCapturer struct {
	VideoDevice string
	AudioDevice string
}

// NewDeviceCapturer returns a capturer for the default Linux device nodes.
func NewDeviceCapturer() *DeviceCapturer {
	return &DeviceCapturer{VideoDevice: "/dev/video0", AudioDevice: "/dev/snd"}
}

type deviceStream struct {
	video *os.File
}

func (s *deviceStream) Close() error {
	return s.video.Close()
}

// Open opens the camera. A missing microphone does not fail the open.
func (d *DeviceCapturer) Open(ctx context.Context, audio bool) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(d.VideoDevice)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCamera, err)
	}
	if audio {
		if _, err := os.Stat(d.AudioDevice); err != nil {
			slog.Debug("microphone unavailable", "device", d.AudioDevice, "error", err)
		}
	}
	return &deviceStream{video: f}, nil
}
