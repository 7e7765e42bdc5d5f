// Package board implements the authoritative tile board for the
// matching game: generation, the constrained path finder and the
// directional collapse policies. It knows nothing about rooms or
// transport; callers hand it a board for the duration of one call.
package board

import "math/rand"

const (
	// Reference geometry. Row/column 0 and the last row/column form an
	// always-empty border, so the playable interior is 9×16 = 144 cells.
	DefaultRows = 11
	DefaultCols = 18

	// TypeCount tile types fill the interior: the first SixCopyTypes
	// contribute 6 copies each, the rest 4 copies each.
	// 12*6 + 18*4 = 144.
	TypeCount    = 30
	SixCopyTypes = 12

	// Empty marks a cell with no tile.
	Empty = -1
)

// Pos identifies a cell.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is a bordered grid of tile values. Interior cells hold a value in
// [0, TypeCount) or Empty; border cells are always Empty.
type Board struct {
	Rows  int
	Cols  int
	Cells [][]int
}

// New returns an all-empty board of the given size.
func New(rows, cols int) *Board {
	cells := make([][]int, rows)
	for i := range cells {
		cells[i] = make([]int, cols)
		for j := range cells[i] {
			cells[i][j] = Empty
		}
	}
	return &Board{Rows: rows, Cols: cols, Cells: cells}
}

// Generate builds a fresh reference-size board: a shuffled bag of tile
// values laid out row-major across the interior. Every type ends up with
// an even count of at least 4.
func Generate(rng *rand.Rand) *Board {
	b := New(DefaultRows, DefaultCols)
	bag := make([]int, 0, (DefaultRows-2)*(DefaultCols-2))
	for t := 0; t < TypeCount; t++ {
		copies := 4
		if t < SixCopyTypes {
			copies = 6
		}
		for c := 0; c < copies; c++ {
			bag = append(bag, t)
		}
	}
	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })

	k := 0
	for r := 1; r < b.Rows-1; r++ {
		for c := 1; c < b.Cols-1; c++ {
			b.Cells[r][c] = bag[k]
			k++
		}
	}
	return b
}

// InBounds reports whether p lies on the grid, border included.
func (b *Board) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < b.Rows && p.Col >= 0 && p.Col < b.Cols
}

// Interior reports whether p is a playable (non-border) cell.
func (b *Board) Interior(p Pos) bool {
	return p.Row >= 1 && p.Row < b.Rows-1 && p.Col >= 1 && p.Col < b.Cols-1
}

// At returns the value at p.
func (b *Board) At(p Pos) int { return b.Cells[p.Row][p.Col] }

// Set writes the value at p.
func (b *Board) Set(p Pos, v int) { b.Cells[p.Row][p.Col] = v }

// IsCleared reports whether every interior cell is empty.
func (b *Board) IsCleared() bool {
	for r := 1; r < b.Rows-1; r++ {
		for c := 1; c < b.Cols-1; c++ {
			if b.Cells[r][c] != Empty {
				return false
			}
		}
	}
	return true
}

// Remaining counts the occupied interior cells.
func (b *Board) Remaining() int {
	n := 0
	for r := 1; r < b.Rows-1; r++ {
		for c := 1; c < b.Cols-1; c++ {
			if b.Cells[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// Reshuffle redistributes the remaining tile values across the positions
// they currently occupy. Cells that were empty stay empty, so both the
// value multiset and the occupied footprint are preserved.
func (b *Board) Reshuffle(rng *rand.Rand) {
	positions := make([]Pos, 0)
	values := make([]int, 0)
	for r := 1; r < b.Rows-1; r++ {
		for c := 1; c < b.Cols-1; c++ {
			if b.Cells[r][c] != Empty {
				positions = append(positions, Pos{Row: r, Col: c})
				values = append(values, b.Cells[r][c])
			}
		}
	}
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	for i, p := range positions {
		b.Cells[p.Row][p.Col] = values[i]
	}
}

// Clone returns a deep copy, used for outgoing snapshots.
func (b *Board) Clone() *Board {
	cp := &Board{Rows: b.Rows, Cols: b.Cols, Cells: make([][]int, b.Rows)}
	for i, row := range b.Cells {
		cp.Cells[i] = make([]int, len(row))
		copy(cp.Cells[i], row)
	}
	return cp
}
