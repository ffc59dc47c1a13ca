// Package layout builds the seat grid for an event.  It is pure: no
// storage access, just deterministic enumeration of (row, number)
// positions so it can be tested in isolation.
package layout

import (
    "errors"
    "fmt"
)

// MaxRows caps layouts to single-letter row labels (A..Z).
const MaxRows = 26

// ErrBadDimensions is wrapped by every validation failure so callers
// can map the whole family to a single bad-request response.
var ErrBadDimensions = errors.New("invalid layout dimensions")

// Position is one cell of the grid.  Row is the letter label, Number
// is the 1-based position within the row.
type Position struct {
    Row    string
    Number uint32
}

// Label renders the position the way it appears on a ticket, e.g. "C7".
func (p Position) Label() string {
    return fmt.Sprintf("%s%d", p.Row, p.Number)
}

// Validate checks the grid dimensions against the product rules:
// rows must fit in single letters (1..26) and seatsPerRow must be
// between 1 and perRowMax.  perRowMax values below 1 fall back to 1.
func Validate(rows, seatsPerRow, perRowMax int) error {
    if perRowMax < 1 {
        perRowMax = 1
    }
    if rows < 1 || rows > MaxRows {
        return fmt.Errorf("%w: rows must be between 1 and %d", ErrBadDimensions, MaxRows)
    }
    if seatsPerRow < 1 || seatsPerRow > perRowMax {
        return fmt.Errorf("%w: seats per row must be between 1 and %d", ErrBadDimensions, perRowMax)
    }
    return nil
}

// Generate enumerates the full grid in display order: row A seats
// 1..seatsPerRow, then row B, and so on.  Dimensions must have been
// validated first; out-of-range input yields an empty grid.
func Generate(rows, seatsPerRow int) []Position {
    if rows < 1 || rows > MaxRows || seatsPerRow < 1 {
        return nil
    }
    out := make([]Position, 0, rows*seatsPerRow)
    for r := 0; r < rows; r++ {
        label := RowLabel(r)
        for n := 1; n <= seatsPerRow; n++ {
            out = append(out, Position{Row: label, Number: uint32(n)})
        }
    }
    return out
}

// RowLabel converts a zero-based row index to its letter label:
// 0 -> A, 1 -> B, ..., 25 -> Z.  Indices outside the supported range
// return an empty string.
func RowLabel(i int) string {
    if i < 0 || i >= MaxRows {
        return ""
    }
    return string(rune('A' + i))
}

// RowIndex converts a letter label back to its zero-based index.
// The second return value reports whether the label is a valid
// single letter A..Z.
func RowIndex(label string) (int, bool) {
    if len(label) != 1 {
        return -1, false
    }
    ch := label[0]
    if ch >= 'a' && ch <= 'z' {
        ch -= 32
    }
    if ch < 'A' || ch > 'Z' {
        return -1, false
    }
    return int(ch - 'A'), true
}
