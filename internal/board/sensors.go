package board

import (
	"time"

	"github.com/openchess/chessboard-backend/internal/hardware"
)

const (
	NumRows = 8
	NumCols = 8
)

// SensorGrid owns the occupancy snapshot of the 8x8 hall sensor matrix.
// Poll scans the hardware into the current matrix; Commit copies current
// into previous so callers control when the edge reference advances.
//
// The grid applies no debounce. Raw edges are exposed as-is; filtering
// is the menu's and the move resolver's job. There is exactly one
// writer (Poll, on the game-logic goroutine), so no lock is held around
// the matrices.
type SensorGrid struct {
	strober hardware.RowStrober
	columns hardware.ColumnReader
	sleep   func(time.Duration)

	current  [NumRows][NumCols]bool
	previous [NumRows][NumCols]bool
}

func NewSensorGrid(strober hardware.RowStrober, columns hardware.ColumnReader) *SensorGrid {
	return &SensorGrid{
		strober: strober,
		columns: columns,
		sleep:   time.Sleep,
	}
}

// Poll performs one full scan: strobe each row in turn, wait for the
// lines to settle, sample every column. All rows are deasserted before
// returning so no row stays energized between scans.
func (that *SensorGrid) Poll() {
	for row := 0; row < NumRows; row++ {
		if err := that.strober.Strobe(row); err != nil {
			continue
		}
		that.sleep(hardware.SettleDelay)
		for col := 0; col < NumCols; col++ {
			occupied, err := that.columns.ReadColumn(col)
			if err != nil {
				continue
			}
			that.current[row][col] = occupied
		}
	}
	_ = that.strober.Strobe(-1)
}

// Occupied reports the current reading for a square.
func (that *SensorGrid) Occupied(row, col int) bool {
	return that.current[row][col]
}

// PreviousOccupied reports the reading as of the last Commit.
func (that *SensorGrid) PreviousOccupied(row, col int) bool {
	return that.previous[row][col]
}

// Commit copies the current snapshot into the previous one.
func (that *SensorGrid) Commit() {
	that.previous = that.current
}
