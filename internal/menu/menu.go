package menu

import (
	"time"

	"github.com/openchess/chessboard-backend/internal/board"
)

// Selection sentinels returned by Poll and WaitForSelection.
const (
	ResultNone = -1
	ResultBack = -2
)

// MaxItems bounds one menu's option count. The ceiling matches what fits
// legibly on the physical board.
const MaxItems = 16

const (
	// DefaultPollInterval paces the blocking selection loop.
	DefaultPollInterval = 40 * time.Millisecond
	// debounceWindow is how long a reading must stay consistent.
	debounceWindow = 125 * time.Millisecond
)

// defaultThreshold: consecutive consistent polls required per phase.
func defaultThreshold() uint8 {
	return uint8(debounceWindow/DefaultPollInterval) + 2
}

var backButtonColor = board.ColorWhite

// Item is one selectable option: a square, its indicator color and the
// identifier returned when it is chosen. Coordinates are authored in
// white-side orientation (row 7 = rank 1).
type Item struct {
	Row   int
	Col   int
	Color board.Color
	ID    int
}

type selectorState struct {
	emptyCount    uint8
	occupiedCount uint8
	armed         bool
}

// Menu is a selection primitive over the LED board: each item lights a
// square, and placing a piece on a lit square selects it. Selection uses
// two-phase debounce: a square must first be seen empty for the
// threshold, then occupied for the threshold, so a piece already
// resting on an item square when the menu appears cannot trigger it.
//
// The items slice is referenced, never copied; it must outlive the menu.
type Menu struct {
	driver  *board.Driver
	sensors *board.SensorGrid

	items     []Item
	hasBack   bool
	backRow   int
	backCol   int
	flipped   bool
	threshold uint8

	// one state per item plus one for the back button
	states [MaxItems + 1]selectorState

	pollInterval time.Duration
	sleep        func(time.Duration)
}

func New(driver *board.Driver, sensors *board.SensorGrid) *Menu {
	return &Menu{
		driver:       driver,
		sensors:      sensors,
		threshold:    defaultThreshold(),
		pollInterval: DefaultPollInterval,
		sleep:        time.Sleep,
	}
}

// SetItems configures the options. Anything past MaxItems is ignored.
func (that *Menu) SetItems(items []Item) {
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	that.items = items
}

// SetBackButton designates a square as the back button, lit white.
func (that *Menu) SetBackButton(row, col int) {
	that.hasBack = true
	that.backRow = row
	that.backCol = col
}

// SetFlipped mirrors authored coordinates vertically so the menu faces a
// player seated on the black side.
func (that *Menu) SetFlipped(flipped bool) {
	that.flipped = flipped
}

func (that *Menu) transformRow(row int) int {
	if that.flipped {
		return 7 - row
	}
	return row
}

func (that *Menu) transformCol(col int) int {
	// Vertical mirror only; columns stay put.
	return col
}

// Show lights every item and the back button.
func (that *Menu) Show() {
	that.driver.Acquire()
	defer that.driver.Release()
	that.driver.Clear(false)
	for _, item := range that.items {
		that.driver.SetSquare(that.transformRow(item.Row), that.transformCol(item.Col), item.Color)
	}
	if that.hasBack {
		that.driver.SetSquare(that.transformRow(that.backRow), that.transformCol(that.backCol), backButtonColor)
	}
	that.driver.Present()
}

// Hide clears the board.
func (that *Menu) Hide() {
	that.driver.Acquire()
	defer that.driver.Release()
	that.driver.Clear(true)
}

// Reset zeroes every debounce counter for a fresh selection cycle.
func (that *Menu) Reset() {
	that.states = [MaxItems + 1]selectorState{}
}

// updateDebounce advances one square's two-phase state machine and
// reports whether a selection is confirmed this poll.
func (that *Menu) updateDebounce(state *selectorState, occupied bool) bool {
	if !occupied {
		if state.emptyCount < that.threshold {
			state.emptyCount++
		}
		state.occupiedCount = 0
		if state.emptyCount >= that.threshold {
			state.armed = true
		}
	} else {
		state.emptyCount = 0
		if state.armed {
			if state.occupiedCount < that.threshold {
				state.occupiedCount++
			}
		} else {
			state.occupiedCount = 0
		}
	}
	return state.armed && state.occupiedCount >= that.threshold
}

// Poll makes one non-blocking pass over the items (declaration order,
// first match wins) and then the back button. Call after the sensor grid
// has been polled. A confirmed selection blinks its square before the
// identifier is returned.
func (that *Menu) Poll() int {
	for i, item := range that.items {
		row := that.transformRow(item.Row)
		col := that.transformCol(item.Col)
		if that.updateDebounce(&that.states[i], that.sensors.Occupied(row, col)) {
			that.driver.BlinkSquare(row, col, item.Color, 1, false, true)
			return item.ID
		}
	}

	if that.hasBack {
		row := that.transformRow(that.backRow)
		col := that.transformCol(that.backCol)
		if that.updateDebounce(&that.states[len(that.items)], that.sensors.Occupied(row, col)) {
			that.driver.BlinkSquare(row, col, backButtonColor, 1, false, true)
			return ResultBack
		}
	}

	return ResultNone
}

// WaitForSelection blocks until something is chosen: reset, show, then
// poll until the result is not ResultNone. It does not hide the menu;
// the caller controls LED state after selection.
func (that *Menu) WaitForSelection() int {
	that.Reset()
	that.Show()
	for {
		that.sensors.Poll()
		if result := that.Poll(); result != ResultNone {
			return result
		}
		that.sleep(that.pollInterval)
	}
}
