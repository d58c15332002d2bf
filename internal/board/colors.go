package board

// Color is one RGB triple for a square LED.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Palette used across the board UI. Comments note the conventional role
// of each color so feedback stays consistent between components.
var (
	ColorCyan     = Color{0, 255, 255}   // lifted piece's origin square
	ColorWhite    = Color{255, 255, 255} // normal move target
	ColorDimWhite = Color{40, 40, 40}    // black side indicator
	ColorRed      = Color{255, 0, 0}     // capture target / error / illegal move
	ColorPurple   = Color{128, 0, 255}   // en passant captured pawn
	ColorGreen    = Color{0, 255, 0}     // confirm / move completion
	ColorLime     = Color{100, 200, 0}   // easy difficulty
	ColorYellow   = Color{255, 200, 0}   // king in check / promotion
	ColorOrange   = Color{255, 80, 0}    // resign gesture indicator
	ColorCrimson  = Color{200, 0, 50}    // hard difficulty
	ColorBlue     = Color{0, 0, 255}     // engine thinking
	ColorOff      = Color{0, 0, 0}
)

// Scale dims a color by a factor in [0,1].
func Scale(c Color, factor float64) Color {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	return Color{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
	}
}
