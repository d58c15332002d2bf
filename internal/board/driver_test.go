package board

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchess/chessboard-backend/internal/hardware"
)

func newTestDriver(t *testing.T) (*Driver, *hardware.SimStrip) {
	t.Helper()

	strip := hardware.NewSimStrip()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	driver := NewDriver(logger, strip)
	driver.sleep = func(time.Duration) {}
	t.Cleanup(driver.Close)
	return driver, strip
}

func TestPixelIndex(t *testing.T) {
	t.Run("Maps board coordinates onto the strip layout", func(t *testing.T) {
		// Given: The column-major bottom-to-top strip layout

		// Then: Corners land on the expected pixels
		assert.Equal(t, 7, pixelIndex(0, 0))  // a8
		assert.Equal(t, 0, pixelIndex(7, 0))  // a1
		assert.Equal(t, 63, pixelIndex(0, 7)) // h8
		assert.Equal(t, 56, pixelIndex(7, 7)) // h1
	})
}

func TestDriver_DirectWrites(t *testing.T) {
	t.Run("SetSquare and Present push a frame", func(t *testing.T) {
		// Given: A driver over a simulated strip
		driver, strip := newTestDriver(t)

		// When: Writing one square under the mutex
		driver.Acquire()
		driver.SetSquare(0, 0, ColorRed)
		driver.Present()
		driver.Release()

		// Then: The staged pixel reached the strip
		r, g, b := strip.Pixel(pixelIndex(0, 0))
		assert.Equal(t, uint8(255), r)
		assert.Equal(t, uint8(0), g)
		assert.Equal(t, uint8(0), b)
		assert.Equal(t, 1, strip.ShowCount())
	})

	t.Run("Clear blanks every square", func(t *testing.T) {
		// Given: A strip with a lit square
		driver, strip := newTestDriver(t)
		driver.Acquire()
		driver.SetSquare(3, 3, ColorGreen)
		driver.Present()

		// When: Clearing with show
		driver.Clear(true)
		driver.Release()

		// Then: The square is dark again
		r, g, b := strip.Pixel(pixelIndex(3, 3))
		assert.Zero(t, r)
		assert.Zero(t, g)
		assert.Zero(t, b)
	})
}

func TestDriver_Drain(t *testing.T) {
	t.Run("Blocks until queued animations finish", func(t *testing.T) {
		// Given: A queued blink
		driver, strip := newTestDriver(t)
		driver.BlinkSquare(2, 2, ColorYellow, 2, false, false)

		// When: Draining the queue
		driver.Drain()

		// Then: The blink has fully run (2 on + 2 off frames)
		assert.GreaterOrEqual(t, strip.ShowCount(), 4)
	})

	t.Run("Completes on an empty queue", func(t *testing.T) {
		// Given: An idle driver
		driver, _ := newTestDriver(t)

		// When / Then: Drain returns promptly
		done := make(chan struct{})
		go func() {
			driver.Drain()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Drain did not complete on an empty queue")
		}
	})
}

func TestDriver_CancellableAnimations(t *testing.T) {
	t.Run("StopAndWait ends the waiting sweep", func(t *testing.T) {
		// Given: A running waiting animation
		driver, _ := newTestDriver(t)
		handle := driver.StartWaiting()
		require.NotNil(t, handle)

		// When: Stopping it
		driver.StopAndWait(handle)

		// Then: The worker is free again; direct access succeeds
		driver.Acquire()
		driver.Clear(true)
		driver.Release()
	})

	t.Run("StopAndWait ends the connecting sweep", func(t *testing.T) {
		// Given: A running connecting animation
		driver, _ := newTestDriver(t)
		handle := driver.StartConnecting()
		require.NotNil(t, handle)

		// When: Stopping it
		driver.StopAndWait(handle)

		// Then: The worker is free again; direct access succeeds
		driver.Acquire()
		driver.Clear(true)
		driver.Release()
	})

	t.Run("StopAndWait is idempotent", func(t *testing.T) {
		// Given: A stopped thinking animation
		driver, _ := newTestDriver(t)
		handle := driver.StartThinking()
		driver.StopAndWait(handle)

		// When / Then: A second stop returns immediately
		done := make(chan struct{})
		go func() {
			driver.StopAndWait(handle)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("second StopAndWait blocked")
		}
	})

	t.Run("StopAndWait tolerates a nil handle", func(t *testing.T) {
		// Given: A driver
		driver, _ := newTestDriver(t)

		// When / Then: No panic
		driver.StopAndWait(nil)
	})
}

func TestDriver_QueueOverflow(t *testing.T) {
	t.Run("Dropped cancellable job still resolves its handle", func(t *testing.T) {
		// Given: A worker pinned by a held mutex and a full queue
		driver, _ := newTestDriver(t)
		driver.Acquire()
		// One job may be in the worker's hands; fill the channel behind it.
		for i := 0; i < animationQueueSize+1; i++ {
			driver.FlashBoard(ColorWhite, 1)
		}

		// When: Starting a cancellable animation against the full queue
		handle := driver.StartWaiting()
		driver.Release()

		// Then: StopAndWait resolves whether the job was queued or dropped
		done := make(chan struct{})
		go func() {
			driver.StopAndWait(handle)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("StopAndWait hung")
		}
	})
}
