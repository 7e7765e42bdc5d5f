package board

// The seven collapse levels. After a matched pair is removed, the room's
// level decides how the surviving tiles resettle around each gap.
const (
	LevelPlain     = 1 // no shift
	LevelDown      = 2 // column gap sinks toward the bottom border
	LevelUp        = 3 // column gap rises toward the top border
	LevelLeft      = 4 // row gap drifts toward the left border
	LevelRight     = 5 // row gap drifts toward the right border
	LevelCenterRow = 6 // column tiles settle toward the middle row
	LevelCenterCol = 7 // row tiles settle toward the middle column
	LevelCount     = 7
)

// ValidLevel reports whether level selects one of the seven policies.
func ValidLevel(level int) bool { return level >= LevelPlain && level <= LevelCount }

// Collapse removes the validated pair at a and b and applies the level's
// gravity to both positions. The two applications are ordered so that the
// first shift can never move or consume the cell the second is about to
// work on; the rules per level are a fixed contract, since reordering
// changes the resulting board whenever the pair shares a row or column.
func (bd *Board) Collapse(level int, a, b Pos) {
	bd.Set(a, Empty)
	bd.Set(b, Empty)
	first, second := orderPair(bd, level, a, b)
	bd.collapseAt(level, first)
	bd.collapseAt(level, second)
}

// orderPair picks which gap to settle first.
//
// Down/right pull tiles from the far (larger-index) side, so the larger
// coordinate goes first; up/left pull from the near side, so the smaller
// coordinate goes first. The center levels branch on which side of the
// center line each position lies: pairs on the same side follow that
// side's rule, straddling pairs touch disjoint segments and settle the
// near-side gap first.
func orderPair(bd *Board, level int, a, b Pos) (Pos, Pos) {
	switch level {
	case LevelDown:
		if b.Row > a.Row {
			return b, a
		}
	case LevelUp:
		if b.Row < a.Row {
			return b, a
		}
	case LevelLeft:
		if b.Col < a.Col {
			return b, a
		}
	case LevelRight:
		if b.Col > a.Col {
			return b, a
		}
	case LevelCenterRow:
		mid := bd.Rows / 2
		switch {
		case a.Row < mid && b.Row < mid: // both above: up-style pull
			if b.Row < a.Row {
				return b, a
			}
		case a.Row > mid && b.Row > mid: // both below: down-style pull
			if b.Row > a.Row {
				return b, a
			}
		default: // straddling or on the line: disjoint segments
			if b.Row < a.Row {
				return b, a
			}
		}
	case LevelCenterCol:
		mid := bd.Cols / 2
		switch {
		case a.Col < mid && b.Col < mid:
			if b.Col < a.Col {
				return b, a
			}
		case a.Col > mid && b.Col > mid:
			if b.Col > a.Col {
				return b, a
			}
		default:
			if b.Col < a.Col {
				return b, a
			}
		}
	}
	return a, b
}

// collapseAt closes the gap at p by shifting the whole run between the
// gap and the facing border one step toward the gap. Pre-existing holes
// in that run travel with it; the freed interior end becomes empty. The
// border is never written.
func (bd *Board) collapseAt(level int, p Pos) {
	switch level {
	case LevelDown:
		bd.pullFromBelow(p)
	case LevelUp:
		bd.pullFromAbove(p)
	case LevelLeft:
		bd.pullFromLeft(p)
	case LevelRight:
		bd.pullFromRight(p)
	case LevelCenterRow:
		mid := bd.Rows / 2
		if p.Row < mid {
			bd.pullFromAbove(p)
		} else if p.Row > mid {
			bd.pullFromBelow(p)
		}
		// A gap on the center row is already at the destination.
	case LevelCenterCol:
		mid := bd.Cols / 2
		if p.Col < mid {
			bd.pullFromLeft(p)
		} else if p.Col > mid {
			bd.pullFromRight(p)
		}
	}
}

func (bd *Board) pullFromBelow(p Pos) {
	for r := p.Row; r < bd.Rows-2; r++ {
		bd.Cells[r][p.Col] = bd.Cells[r+1][p.Col]
	}
	bd.Cells[bd.Rows-2][p.Col] = Empty
}

func (bd *Board) pullFromAbove(p Pos) {
	for r := p.Row; r > 1; r-- {
		bd.Cells[r][p.Col] = bd.Cells[r-1][p.Col]
	}
	bd.Cells[1][p.Col] = Empty
}

func (bd *Board) pullFromLeft(p Pos) {
	for c := p.Col; c > 1; c-- {
		bd.Cells[p.Row][c] = bd.Cells[p.Row][c-1]
	}
	bd.Cells[p.Row][1] = Empty
}

func (bd *Board) pullFromRight(p Pos) {
	for c := p.Col; c < bd.Cols-2; c++ {
		bd.Cells[p.Row][c] = bd.Cells[p.Row][c+1]
	}
	bd.Cells[p.Row][bd.Cols-2] = Empty
}
