package menu

import "github.com/openchess/chessboard-backend/internal/board"

const confirmYes = 1

// confirmItems lives at package scope so the menu's item reference stays
// valid for the whole selection cycle.
var confirmItems = []Item{
	{Row: 4, Col: 3, Color: board.ColorGreen, ID: confirmYes}, // yes, d4
	{Row: 4, Col: 4, Color: board.ColorRed, ID: 0},            // no, e4
}

// Confirm shows a blocking yes/no dialog on the two center squares,
// green for yes and red for no, and waits for a piece placement.
func Confirm(driver *board.Driver, sensors *board.SensorGrid, flipped bool) bool {
	m := New(driver, sensors)
	m.SetItems(confirmItems)
	m.SetFlipped(flipped)
	return m.WaitForSelection() == confirmYes
}
