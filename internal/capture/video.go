package capture

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blackjack/webcam"
)

// Camera holds one open V4L2 device and buffers MJPEG frames while streaming.
type Camera struct {
	path   string
	cam    *webcam.Webcam
	width  uint32
	height uint32

	mu      sync.Mutex
	frames  []byte
	count   int
	stopped bool

	done chan struct{}
	loop sync.WaitGroup
}

// NewCamera opens a V4L2 device and negotiates an MJPEG-capable frame format.
// The camera is held from this point until Close.
func NewCamera(path string, width, height uint32) (*Camera, error) {
	cam, err := webcam.Open(path)
	if err != nil {
		return nil, classifyCameraError(path, err)
	}

	format, err := pickImageFormat(cam)
	if err != nil {
		_ = cam.Close()
		return nil, err
	}

	_, w, h, err := cam.SetImageFormat(format, width, height)
	if err != nil {
		_ = cam.Close()
		return nil, fmt.Errorf("%w: set image format on %q: %v", ErrDeviceUnavailable, path, err)
	}

	return &Camera{
		path:   path,
		cam:    cam,
		width:  w,
		height: h,
		done:   make(chan struct{}),
	}, nil
}

// Resolution returns the negotiated frame dimensions.
func (c *Camera) Resolution() (uint32, uint32) {
	return c.width, c.height
}

// Start begins streaming and buffering frames.
func (c *Camera) Start() error {
	if err := c.cam.StartStreaming(); err != nil {
		return fmt.Errorf("%w: start streaming on %q: %v", ErrDeviceUnavailable, c.path, err)
	}
	c.loop.Add(1)
	go c.readLoop()
	return nil
}

// readLoop drains frames into the clip buffer until Close.
func (c *Camera) readLoop() {
	defer c.loop.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		err := c.cam.WaitForFrame(1)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			return
		}

		frame, err := c.cam.ReadFrame()
		if err != nil || len(frame) == 0 {
			continue
		}

		c.mu.Lock()
		if c.stopped {
			c.mu.Unlock()
			return
		}
		c.frames = append(c.frames, frame...)
		c.count++
		c.mu.Unlock()
	}
}

// MJPEG returns a snapshot of the concatenated frame stream.
func (c *Camera) MJPEG() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

// FrameCount reports how many frames have been buffered.
func (c *Camera) FrameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Close stops streaming and releases the device. Idempotent.
func (c *Camera) Close() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	close(c.done)
	_ = c.cam.StopStreaming()
	err := c.cam.Close()
	c.loop.Wait()
	return err
}

// pickImageFormat prefers MJPEG, falling back to any supported format.
func pickImageFormat(cam *webcam.Webcam) (webcam.PixelFormat, error) {
	formats := cam.GetSupportedFormats()
	if len(formats) == 0 {
		return 0, fmt.Errorf("%w: camera reports no supported formats", ErrDeviceUnavailable)
	}

	var fallback webcam.PixelFormat
	for format, description := range formats {
		desc := strings.ToUpper(description)
		if strings.Contains(desc, "MJPG") || strings.Contains(desc, "JPEG") {
			return format, nil
		}
		fallback = format
	}
	return fallback, nil
}

// classifyCameraError maps V4L2 open failures onto the capture error taxonomy.
func classifyCameraError(path string, err error) error {
	if os.IsPermission(err) {
		return fmt.Errorf("%w: open %q: %v", ErrPermissionDenied, path, err)
	}
	return fmt.Errorf("%w: open %q: %v", ErrDeviceUnavailable, path, err)
}
