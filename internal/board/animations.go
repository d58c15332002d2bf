package board

import (
	"math"
	"sync/atomic"
	"time"
)

// AnimationKind discriminates the job union consumed by the worker.
type AnimationKind uint8

const (
	KindCapture AnimationKind = iota
	KindPromotion
	KindBlink
	KindWaiting
	KindThinking
	KindConnecting
	KindFirework
	KindFlash
	// KindSync is a no-op barrier: Drain enqueues it and blocks until the
	// worker reaches it, guaranteeing all earlier jobs have finished.
	KindSync
)

type blinkParams struct {
	Row, Col    int
	Color       Color
	Times       int
	ClearBefore bool
	ClearAfter  bool
}

type squareParams struct {
	Row, Col int
}

type flashParams struct {
	Color Color
	Times int
}

// animationJob carries the kind discriminant plus the payload for that
// kind. Only the field matching the kind is meaningful.
type animationJob struct {
	kind      AnimationKind
	blink     blinkParams
	capture   squareParams
	promotion int // column
	flash     flashParams
	firework  Color
	handle    *CancelHandle // WAITING / THINKING / CONNECTING
	barrier   chan struct{} // SYNC
}

// CancelHandle is the shared-ownership cancellation cell for a
// long-running animation. The caller requests cancellation with
// Driver.StopAndWait; the worker observes the flag between frames and
// closes done when the job ends. Neither side frees anything, so a
// repeated stop is a harmless no-op.
type CancelHandle struct {
	stop atomic.Bool
	done chan struct{}
}

func newCancelHandle() *CancelHandle {
	return &CancelHandle{done: make(chan struct{})}
}

func (that *CancelHandle) stopped() bool {
	return that.stop.Load()
}

// enqueue appends a fire-and-forget job. A full queue drops the job:
// feedback effects are best-effort, never fatal.
func (that *Driver) enqueue(job animationJob) bool {
	select {
	case that.jobs <- job:
		return true
	default:
		that.logger.Warn("animation queue full, dropping job", "kind", job.kind)
		return false
	}
}

// BlinkSquare queues an on/off blink of one square.
func (that *Driver) BlinkSquare(row, col int, color Color, times int, clearBefore, clearAfter bool) {
	that.enqueue(animationJob{kind: KindBlink, blink: blinkParams{
		Row: row, Col: col, Color: color, Times: times,
		ClearBefore: clearBefore, ClearAfter: clearAfter,
	}})
}

// CaptureAnimation queues the ripple effect played when a piece is taken.
func (that *Driver) CaptureAnimation(row, col int) {
	that.enqueue(animationJob{kind: KindCapture, capture: squareParams{Row: row, Col: col}})
}

// PromotionAnimation queues the golden waterfall on the promotion column.
func (that *Driver) PromotionAnimation(col int) {
	that.enqueue(animationJob{kind: KindPromotion, promotion: col})
}

// FireworkAnimation queues the expanding/contracting ring celebration.
func (that *Driver) FireworkAnimation(color Color) {
	that.enqueue(animationJob{kind: KindFirework, firework: color})
}

// FlashBoard queues a whole-board flash.
func (that *Driver) FlashBoard(color Color, times int) {
	that.enqueue(animationJob{kind: KindFlash, flash: flashParams{Color: color, Times: times}})
}

// StartWaiting begins the cancellable idle sweep and returns its handle.
func (that *Driver) StartWaiting() *CancelHandle {
	return that.startCancellable(KindWaiting)
}

// StartThinking begins the cancellable thinking pulse and returns its handle.
func (that *Driver) StartThinking() *CancelHandle {
	return that.startCancellable(KindThinking)
}

// StartConnecting begins the cancellable column sweep shown while a
// remote session is being established.
func (that *Driver) StartConnecting() *CancelHandle {
	return that.startCancellable(KindConnecting)
}

func (that *Driver) startCancellable(kind AnimationKind) *CancelHandle {
	handle := newCancelHandle()
	if !that.enqueue(animationJob{kind: kind, handle: handle}) {
		// The job never reached the queue, so nothing will close done.
		close(handle.done)
	}
	return handle
}

// StopAndWait cancels a running cancellable animation and blocks until
// the worker has actually finished its last frame and released the
// strip. Safe with a nil handle, and safe to call more than once.
func (that *Driver) StopAndWait(handle *CancelHandle) {
	if handle == nil {
		return
	}
	handle.stop.Store(true)
	<-handle.done
}

// Drain blocks until every job enqueued before the call has completed.
// Use before writing LEDs directly so a stale queued animation cannot
// overwrite the new frame.
func (that *Driver) Drain() {
	barrier := make(chan struct{})
	that.jobs <- animationJob{kind: KindSync, barrier: barrier}
	<-barrier
}

func (that *Driver) worker() {
	defer that.wg.Done()
	for job := range that.jobs {
		that.execute(job)
	}
}

func (that *Driver) execute(job animationJob) {
	switch job.kind {
	case KindSync:
		close(job.barrier)
		return
	case KindWaiting:
		that.runLocked(func() { that.doWaiting(job.handle) })
		close(job.handle.done)
		return
	case KindThinking:
		that.runLocked(func() { that.doThinking(job.handle) })
		close(job.handle.done)
		return
	case KindConnecting:
		that.runLocked(func() { that.doConnecting(job.handle) })
		close(job.handle.done)
		return
	case KindBlink:
		that.runLocked(func() { that.doBlink(job.blink) })
	case KindCapture:
		that.runLocked(func() { that.doCapture(job.capture.Row, job.capture.Col) })
	case KindPromotion:
		that.runLocked(func() { that.doPromotion(job.promotion) })
	case KindFirework:
		that.runLocked(func() { that.doFirework(job.firework) })
	case KindFlash:
		that.runLocked(func() { that.doFlash(job.flash.Color, job.flash.Times) })
	}
}

func (that *Driver) runLocked(fn func()) {
	that.mu.Lock()
	defer that.mu.Unlock()
	fn()
}

// All do* helpers run with the mutex held.

func (that *Driver) doBlink(p blinkParams) {
	if p.ClearBefore {
		that.Clear(false)
	}
	for i := 0; i < p.Times; i++ {
		that.SetSquare(p.Row, p.Col, p.Color)
		that.Present()
		that.sleep(200 * time.Millisecond)
		that.SetSquare(p.Row, p.Col, ColorOff)
		that.Present()
		that.sleep(200 * time.Millisecond)
	}
	if p.ClearAfter {
		that.Clear(true)
	}
}

func (that *Driver) doCapture(row, col int) {
	// Three pulses rippling outward from the capture square, alternating
	// red and orange.
	for pulse := 0; pulse < 3; pulse++ {
		radius := 1.5 + float64(pulse)
		color := ColorRed
		if pulse%2 == 1 {
			color = Color{255, 165, 0}
		}
		that.drawRing(float64(col), float64(row), radius, color)
		that.Present()
		that.sleep(150 * time.Millisecond)
	}
	that.Clear(true)
}

func (that *Driver) doPromotion(col int) {
	gold := Color{255, 215, 0}
	for step := 0; step < 16; step++ {
		for row := 0; row < NumRows; row++ {
			if (step+row)%8 < 4 {
				that.SetSquare(row, col, gold)
			} else {
				that.SetSquare(row, col, ColorOff)
			}
		}
		that.Present()
		that.sleep(100 * time.Millisecond)
	}
	for row := 0; row < NumRows; row++ {
		that.SetSquare(row, col, ColorOff)
	}
	that.Present()
}

func (that *Driver) doFirework(color Color) {
	const center = 3.5
	expand := func() {
		for radius := 0.0; radius < 6; radius += 0.5 {
			that.drawRing(center, center, radius, color)
			that.Present()
			that.sleep(100 * time.Millisecond)
		}
	}
	contract := func() {
		for radius := 6.0; radius > 0; radius -= 0.5 {
			that.drawRing(center, center, radius, color)
			that.Present()
			that.sleep(100 * time.Millisecond)
		}
	}
	expand()
	contract()
	expand()
	that.Clear(true)
}

func (that *Driver) doFlash(color Color, times int) {
	for i := 0; i < times; i++ {
		for row := 0; row < NumRows; row++ {
			for col := 0; col < NumCols; col++ {
				that.SetSquare(row, col, color)
			}
		}
		that.Present()
		that.sleep(150 * time.Millisecond)
		that.Clear(true)
		that.sleep(150 * time.Millisecond)
	}
}

// doWaiting sweeps a single white pixel around the board perimeter until
// cancelled. The stop flag is checked every frame.
func (that *Driver) doWaiting(handle *CancelHandle) {
	perimeter := perimeterSquares()
	for i := 0; !handle.stopped(); i = (i + 1) % len(perimeter) {
		that.Clear(false)
		sq := perimeter[i]
		that.SetSquare(sq[0], sq[1], ColorDimWhite)
		that.Present()
		that.sleep(80 * time.Millisecond)
	}
	that.Clear(true)
}

// doThinking pulses the four center squares blue until cancelled.
func (that *Driver) doThinking(handle *CancelHandle) {
	for step := 0; !handle.stopped(); step++ {
		level := 0.5 + 0.5*math.Sin(float64(step)*0.3)
		color := Scale(ColorBlue, level)
		for _, sq := range [][2]int{{3, 3}, {3, 4}, {4, 3}, {4, 4}} {
			that.SetSquare(sq[0], sq[1], color)
		}
		that.Present()
		that.sleep(60 * time.Millisecond)
	}
	that.Clear(true)
}

// doConnecting sweeps a cyan column across the board until cancelled.
func (that *Driver) doConnecting(handle *CancelHandle) {
	for col := 0; !handle.stopped(); col = (col + 1) % NumCols {
		that.Clear(false)
		for row := 0; row < NumRows; row++ {
			that.SetSquare(row, col, Scale(ColorCyan, 0.4))
		}
		that.Present()
		that.sleep(120 * time.Millisecond)
	}
	that.Clear(true)
}

func (that *Driver) drawRing(centerX, centerY, radius float64, color Color) {
	for row := 0; row < NumRows; row++ {
		for col := 0; col < NumCols; col++ {
			dx := float64(col) - centerX
			dy := float64(row) - centerY
			dist := math.Sqrt(dx*dx + dy*dy)
			if math.Abs(dist-radius) < 0.5 {
				that.SetSquare(row, col, color)
			} else {
				that.SetSquare(row, col, ColorOff)
			}
		}
	}
}

func perimeterSquares() [][2]int {
	var squares [][2]int
	for col := 0; col < NumCols; col++ {
		squares = append(squares, [2]int{0, col})
	}
	for row := 1; row < NumRows; row++ {
		squares = append(squares, [2]int{row, NumCols - 1})
	}
	for col := NumCols - 2; col >= 0; col-- {
		squares = append(squares, [2]int{NumRows - 1, col})
	}
	for row := NumRows - 2; row >= 1; row-- {
		squares = append(squares, [2]int{row, 0})
	}
	return squares
}
