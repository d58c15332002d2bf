package board

import (
	"log/slog"
	"sync"
	"time"

	"github.com/openchess/chessboard-backend/internal/hardware"
)

const animationQueueSize = 16

// Driver owns the LED strip. Two families of access exist:
//
//   - immediate writes: Acquire/Release bracket exclusive access to the
//     strip; SetSquare, Clear and Present must only be called while the
//     caller holds the mutex.
//   - queued jobs: Enqueue and the effect helpers append to a bounded
//     FIFO consumed by a single worker goroutine, which takes the same
//     mutex for the whole duration of each job.
//
// Because both paths go through one mutex, a queued animation and a
// direct caller never interleave mid-frame.
type Driver struct {
	logger *slog.Logger
	strip  hardware.PixelStrip

	mu         sync.Mutex
	jobs       chan animationJob
	wg         sync.WaitGroup
	sleep      func(time.Duration)
	brightness uint8
}

func NewDriver(logger *slog.Logger, strip hardware.PixelStrip) *Driver {
	that := &Driver{
		logger:     logger.With("component", "board-driver"),
		strip:      strip,
		jobs:       make(chan animationJob, animationQueueSize),
		sleep:      time.Sleep,
		brightness: 255,
	}
	that.wg.Add(1)
	go that.worker()
	return that
}

// Close stops the animation worker after it finishes the queued jobs.
func (that *Driver) Close() {
	close(that.jobs)
	that.wg.Wait()
}

// SetBrightness forwards the global brightness to the strip. Safe to
// call from any goroutine.
func (that *Driver) SetBrightness(value uint8) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.brightness = value
	that.strip.Brightness(value)
}

// GetBrightness returns the last brightness set.
func (that *Driver) GetBrightness() uint8 {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.brightness
}

// Acquire blocks until the caller holds exclusive access to the strip.
// Every Acquire must be paired with a Release; holding across a blocking
// wait starves the animation worker.
func (that *Driver) Acquire() {
	that.mu.Lock()
}

// Release gives up exclusive access.
func (that *Driver) Release() {
	that.mu.Unlock()
}

// pixelIndex maps logical board coordinates (row 0 = rank 8, col 0 =
// file a) onto the serpentine-free strip layout: one column per strand
// segment, bottom to top.
func pixelIndex(row, col int) int {
	return col*NumCols + (NumRows - 1 - row)
}

// SetSquare stages a color for one square. Caller must hold Acquire.
func (that *Driver) SetSquare(row, col int, color Color) {
	that.strip.SetPixel(pixelIndex(row, col), color.R, color.G, color.B)
}

// Clear stages black on every square. Caller must hold Acquire.
// Present must be called separately when show is false.
func (that *Driver) Clear(show bool) {
	for i := 0; i < NumRows*NumCols; i++ {
		that.strip.SetPixel(i, 0, 0, 0)
	}
	if show {
		that.Present()
	}
}

// Present pushes the staged frame to the strip. Caller must hold Acquire.
func (that *Driver) Present() {
	if err := that.strip.Show(); err != nil {
		that.logger.Error("failed to push LED frame", "error", err)
	}
}
