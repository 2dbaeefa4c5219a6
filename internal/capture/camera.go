// Package capture reads camera devices and video files through OpenCV.
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"styler/internal/core"
	"styler/internal/io"
	"styler/internal/source"
)

// readRetry is the pause after a failed read before trying again
const readRetry = 10 * time.Millisecond

// CameraOpener opens capture devices by index
type CameraOpener struct {
	logger logrus.FieldLogger
}

func NewCameraOpener(logger logrus.FieldLogger) *CameraOpener {
	return &CameraOpener{logger: logger}
}

func (o *CameraOpener) OpenDevice(settings source.CameraSettings) (source.Device, error) {
	return OpenCamera(settings, o.logger)
}

// Camera reads a device on its own goroutine and keeps only the latest
// frame. VideoCapture.Read blocks until the device delivers, so it is kept
// off the update loop.
type Camera struct {
	vc     *gocv.VideoCapture
	logger logrus.FieldLogger

	mu     sync.Mutex
	latest *core.Frame
	fresh  bool
	width  int
	height int

	seq  uint64
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func OpenCamera(settings source.CameraSettings, logger logrus.FieldLogger) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(settings.Device)
	if err != nil {
		return nil, fmt.Errorf("open device %d: %w", settings.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("device %d not opened", settings.Device)
	}
	if settings.Width > 0 && settings.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(settings.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(settings.Height))
	}
	if settings.Rate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(settings.Rate))
	}

	log := logger.WithFields(logrus.Fields{
		"component": "camera",
		"device":    settings.Device,
	})
	c := &Camera{
		vc:     vc,
		logger: log,
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.readLoop()

	c.logger.WithFields(logrus.Fields{
		"width":  c.width,
		"height": c.height,
		"fps":    vc.Get(gocv.VideoCaptureFPS),
	}).Info("camera opened")
	return c, nil
}

// Poll returns the latest frame if it has not been returned before
func (c *Camera) Poll() (*core.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fresh {
		return nil, false
	}
	c.fresh = false
	return c.latest, true
}

// Size is the size reported by the device, updated by the first frame
func (c *Camera) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Close stops the reader and releases the device. Idempotent.
func (c *Camera) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stop)
		<-c.done
		err = c.vc.Close()
		c.logger.Info("camera closed")
	})
	return err
}

func (c *Camera) readLoop() {
	defer close(c.done)
	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		if !c.vc.Read(&mat) || mat.Empty() {
			time.Sleep(readRetry)
			continue
		}
		frame, err := io.MatToFrame(mat)
		if err != nil {
			c.logger.WithError(err).Warn("dropping unreadable frame")
			continue
		}
		c.seq++
		frame.Seq = c.seq
		frame.Timestamp = time.Now()

		c.mu.Lock()
		c.latest = frame
		c.fresh = true
		c.width, c.height = frame.Width, frame.Height
		c.mu.Unlock()
	}
}

// ListDevices tries the first limit device indices and returns those that
// open
func ListDevices(limit int, logger logrus.FieldLogger) []int {
	var found []int
	for i := 0; i < limit; i++ {
		vc, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		if vc.IsOpened() {
			found = append(found, i)
			logger.WithFields(logrus.Fields{
				"device": i,
				"width":  vc.Get(gocv.VideoCaptureFrameWidth),
				"height": vc.Get(gocv.VideoCaptureFrameHeight),
			}).Info("capture device")
		}
		vc.Close()
	}
	return found
}
