package board

// MaxTurns is the genre's "line" rule: a connection may change direction
// at most twice.
const MaxTurns = 2

var dirDeltas = [4]Pos{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}

type pathNode struct {
	pos Pos
	dir int
}

// pathDeque is a minimal two-stack deque for the 0-1 BFS: zero-cost
// expansions go to the front, turns to the back.
type pathDeque struct {
	front []pathNode
	back  []pathNode
}

func (d *pathDeque) pushFront(n pathNode) { d.front = append(d.front, n) }

func (d *pathDeque) pushBack(n pathNode) { d.back = append(d.back, n) }

func (d *pathDeque) popFront() (pathNode, bool) {
	if len(d.front) > 0 {
		n := d.front[len(d.front)-1]
		d.front = d.front[:len(d.front)-1]
		return n, true
	}
	if len(d.back) > 0 {
		n := d.back[0]
		d.back = d.back[1:]
		return n, true
	}
	return pathNode{}, false
}

// FindPath reports whether start and goal can be joined by a rectilinear
// line through empty cells (the goal cell itself is exempt from the
// emptiness check) using at most maxTurns direction changes. The returned
// path holds only the corner points, endpoints included, in start-to-goal
// order; it is nil when no legal connection exists.
//
// The search is a 0-1 BFS over (row, col, incoming direction) states:
// continuing straight costs nothing, turning costs one. Because edge
// costs are 0 or 1 and the deque keeps the frontier in cost order, the
// first time the goal is dequeued the turn count is minimal.
func (b *Board) FindPath(start, goal Pos, maxTurns int) []Pos {
	if !b.Interior(start) || !b.Interior(goal) || start == goal {
		return nil
	}

	const unvisited = int(^uint(0) >> 1)
	dist := make([][][4]int, b.Rows)
	prev := make([][][4]pathNode, b.Rows)
	for r := range dist {
		dist[r] = make([][4]int, b.Cols)
		prev[r] = make([][4]pathNode, b.Cols)
		for c := range dist[r] {
			for d := 0; d < 4; d++ {
				dist[r][c][d] = unvisited
			}
		}
	}

	passable := func(p Pos) bool {
		return b.InBounds(p) && (b.At(p) == Empty || p == goal)
	}

	var dq pathDeque
	// The very first move never counts as a turn: seed all four
	// directions from start at cost zero.
	for d := 0; d < 4; d++ {
		n := Pos{Row: start.Row + dirDeltas[d].Row, Col: start.Col + dirDeltas[d].Col}
		if !passable(n) {
			continue
		}
		dist[n.Row][n.Col][d] = 0
		prev[n.Row][n.Col][d] = pathNode{pos: start, dir: -1}
		dq.pushFront(pathNode{pos: n, dir: d})
	}

	for {
		cur, ok := dq.popFront()
		if !ok {
			return nil
		}
		t := dist[cur.pos.Row][cur.pos.Col][cur.dir]
		if cur.pos == goal {
			return b.rebuildPath(prev, start, cur)
		}
		for nd := 0; nd < 4; nd++ {
			cost := t
			if nd != cur.dir {
				cost++
			}
			if cost > maxTurns {
				continue
			}
			n := Pos{Row: cur.pos.Row + dirDeltas[nd].Row, Col: cur.pos.Col + dirDeltas[nd].Col}
			if !passable(n) {
				continue
			}
			if cost >= dist[n.Row][n.Col][nd] {
				continue
			}
			dist[n.Row][n.Col][nd] = cost
			prev[n.Row][n.Col][nd] = cur
			if cost == t {
				dq.pushFront(pathNode{pos: n, dir: nd})
			} else {
				dq.pushBack(pathNode{pos: n, dir: nd})
			}
		}
	}
}

// rebuildPath walks parent links from the goal state and keeps only the
// points where the travel direction changes, plus both endpoints.
func (b *Board) rebuildPath(prev [][][4]pathNode, start Pos, goalState pathNode) []Pos {
	cells := []Pos{goalState.pos}
	dirs := []int{goalState.dir}
	cur := goalState
	for {
		p := prev[cur.pos.Row][cur.pos.Col][cur.dir]
		cells = append(cells, p.pos)
		if p.dir == -1 {
			break
		}
		dirs = append(dirs, p.dir)
		cur = p
	}
	// cells is goal..start; reverse both in place.
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}

	path := []Pos{cells[0]}
	for i := 1; i < len(dirs); i++ {
		if dirs[i] != dirs[i-1] {
			path = append(path, cells[i])
		}
	}
	path = append(path, cells[len(cells)-1])
	return path
}

// HasAnyMove reports whether any same-type pair on the board is joinable
// within the turn budget. Used to detect deadlock before it can persist.
func (b *Board) HasAnyMove() bool {
	byType := make(map[int][]Pos)
	for r := 1; r < b.Rows-1; r++ {
		for c := 1; c < b.Cols-1; c++ {
			if v := b.Cells[r][c]; v != Empty {
				byType[v] = append(byType[v], Pos{Row: r, Col: c})
			}
		}
	}
	for _, positions := range byType {
		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				if b.FindPath(positions[i], positions[j], MaxTurns) != nil {
					return true
				}
			}
		}
	}
	return false
}
