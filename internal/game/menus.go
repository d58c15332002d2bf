package game

import (
	"github.com/openchess/chessboard-backend/internal/board"
	"github.com/openchess/chessboard-backend/internal/menu"
)

// Menu result IDs. Distinct ranges per menu level keep routing in the
// selector a flat switch.
const (
	MenuTwoPlayer  = 0
	MenuEngine     = 1
	MenuOnline     = 2
	MenuSensorTest = 3

	// Engine difficulty, levels 1 through 8.
	menuDifficultyBase = 10

	MenuPlayWhite  = 20
	MenuPlayBlack  = 21
	MenuPlayRandom = 22
)

// Selected game modes, as latched by the menus or the web UI.
const (
	ModeTwoPlayer = iota + 1
	ModeEngine
	ModeOnline
	ModeSensorTest
)

// Coordinates are in white-side orientation (row 7 = rank 1).
var (
	gameMenuItems = []menu.Item{
		{Row: 3, Col: 3, Color: board.ColorBlue, ID: MenuTwoPlayer},
		{Row: 3, Col: 4, Color: board.ColorGreen, ID: MenuEngine},
		{Row: 4, Col: 3, Color: board.ColorYellow, ID: MenuOnline},
		{Row: 4, Col: 4, Color: board.ColorRed, ID: MenuSensorTest},
	}

	// One square per difficulty level, green through purple across the row.
	difficultyItems = []menu.Item{
		{Row: 3, Col: 0, Color: board.ColorGreen, ID: menuDifficultyBase},
		{Row: 3, Col: 1, Color: board.ColorLime, ID: menuDifficultyBase + 1},
		{Row: 3, Col: 2, Color: board.ColorYellow, ID: menuDifficultyBase + 2},
		{Row: 3, Col: 3, Color: board.ColorOrange, ID: menuDifficultyBase + 3},
		{Row: 3, Col: 4, Color: board.ColorRed, ID: menuDifficultyBase + 4},
		{Row: 3, Col: 5, Color: board.ColorCrimson, ID: menuDifficultyBase + 5},
		{Row: 3, Col: 6, Color: board.ColorBlue, ID: menuDifficultyBase + 6},
		{Row: 3, Col: 7, Color: board.ColorPurple, ID: menuDifficultyBase + 7},
	}

	sideItems = []menu.Item{
		{Row: 3, Col: 3, Color: board.ColorWhite, ID: MenuPlayWhite},
		{Row: 3, Col: 4, Color: board.ColorDimWhite, ID: MenuPlayBlack},
		{Row: 3, Col: 5, Color: board.ColorYellow, ID: MenuPlayRandom},
	}
)

// Menus bundles the board menus of the selection flow.
type Menus struct {
	Game       *menu.Menu
	Difficulty *menu.Menu
	Side       *menu.Menu
}

// BuildMenus wires the selection menus onto the given hardware.
func BuildMenus(driver *board.Driver, sensors *board.SensorGrid) *Menus {
	game := menu.New(driver, sensors)
	game.SetItems(gameMenuItems)

	difficulty := menu.New(driver, sensors)
	difficulty.SetItems(difficultyItems)
	difficulty.SetBackButton(4, 4)

	side := menu.New(driver, sensors)
	side.SetItems(sideItems)
	side.SetBackButton(4, 4)

	return &Menus{Game: game, Difficulty: difficulty, Side: side}
}
