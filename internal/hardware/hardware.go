package hardware

import "time"

// RowStrober drives the shift register that selects one sensor row at a
// time. Exactly one row line may be asserted; Strobe(-1) deasserts all
// rows (required between scans to avoid ghosting).
type RowStrober interface {
	Strobe(row int) error
}

// ColumnReader samples the column input lines while a row is strobed.
// A true reading means the hall sensor on that column detects a piece.
type ColumnReader interface {
	ReadColumn(col int) (bool, error)
}

// PixelStrip is the addressable LED chain. SetPixel stages a color in
// the strip's buffer; Show pushes the whole buffer to the hardware.
type PixelStrip interface {
	SetPixel(index int, r, g, b uint8)
	Show() error
	Brightness(value uint8)
}

// SettleDelay is the time to wait after asserting a row line before the
// column inputs are stable enough to sample.
const SettleDelay = 100 * time.Microsecond
