package hardware

import "sync"

// SimBoard is an in-memory stand-in for the sensor matrix. It implements
// RowStrober and ColumnReader so the rest of the stack runs unchanged on
// a machine without the scan hardware. Tests and the headless mode use it.
type SimBoard struct {
	mu        sync.Mutex
	occupied  [8][8]bool
	activeRow int
}

func NewSimBoard() *SimBoard {
	return &SimBoard{activeRow: -1}
}

func (that *SimBoard) Strobe(row int) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.activeRow = row
	return nil
}

func (that *SimBoard) ReadColumn(col int) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if that.activeRow < 0 || that.activeRow > 7 || col < 0 || col > 7 {
		return false, nil
	}
	return that.occupied[that.activeRow][col], nil
}

// Place simulates setting a piece down on a square.
func (that *SimBoard) Place(row, col int) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.occupied[row][col] = true
}

// Lift simulates picking a piece up from a square.
func (that *SimBoard) Lift(row, col int) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.occupied[row][col] = false
}

// SetAll replaces the whole occupancy matrix in one call.
func (that *SimBoard) SetAll(occupied [8][8]bool) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.occupied = occupied
}

// SimStrip is an in-memory LED strip. It records the staged buffer and
// the frames pushed by Show so tests can assert on rendered output.
type SimStrip struct {
	mu         sync.Mutex
	pixels     [64][3]uint8
	brightness uint8
	shows      int
}

func NewSimStrip() *SimStrip {
	return &SimStrip{brightness: 255}
}

func (that *SimStrip) SetPixel(index int, r, g, b uint8) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if index < 0 || index >= len(that.pixels) {
		return
	}
	that.pixels[index] = [3]uint8{r, g, b}
}

func (that *SimStrip) Show() error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.shows++
	return nil
}

func (that *SimStrip) Brightness(value uint8) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.brightness = value
}

// Pixel returns the staged color at an index.
func (that *SimStrip) Pixel(index int) (r, g, b uint8) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if index < 0 || index >= len(that.pixels) {
		return 0, 0, 0
	}
	p := that.pixels[index]
	return p[0], p[1], p[2]
}

// ShowCount reports how many frames were pushed.
func (that *SimStrip) ShowCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.shows
}
