package game

// FindPath returns a shortest walkable path from start to target, both inclusive.
//
// The search is a breadth-first flood over the 4-connected grid. Neighbors are
// expanded Up, Right, Down, Left so ties always resolve the same way. The path
// is rebuilt by following predecessor links back from target.
//
// A nil path means target is unreachable (or either end is not walkable).
// When start equals target the path holds that single cell.
func FindPath(b *Board, start, target Position) []Position {
	if b.IsWall(start) || b.IsWall(target) {
		return nil
	}
	if start == target {
		return []Position{start}
	}

	prev := bfs(b, start, nil)

	const none = -1
	idx := func(p Position) int { return p.Y*b.Cols() + p.X }
	if prev[idx(target)] == none {
		return nil
	}

	var path []Position
	for cur := target; cur != start; {
		path = append(path, cur)
		p := prev[idx(cur)]
		cur = Position{X: p % b.Cols(), Y: p / b.Cols()}
	}
	path = append(path, start)

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Distances returns the BFS step count from start to every cell, indexed [row][col].
// Unreachable cells and walls hold -1.
func Distances(b *Board, start Position) [][]int {
	dist := make([][]int, b.Rows())
	for y := range dist {
		dist[y] = make([]int, b.Cols())
		for x := range dist[y] {
			dist[y][x] = -1
		}
	}
	if b.IsWall(start) {
		return dist
	}
	dist[start.Y][start.X] = 0
	bfs(b, start, func(from, to Position) {
		dist[to.Y][to.X] = dist[from.Y][from.X] + 1
	})
	return dist
}

// bfs labels every cell reachable from start with its predecessor index
// (row-major, -1 when unlabelled). visit is called once per newly labelled cell.
func bfs(b *Board, start Position, visit func(from, to Position)) []int {
	cols := b.Cols()
	prev := make([]int, b.Rows()*cols)
	for i := range prev {
		prev[i] = -1
	}
	seen := make([]bool, len(prev))
	seen[start.Y*cols+start.X] = true

	queue := []Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, d := range Directions {
			next := cur.Add(d.Delta())
			if b.IsWall(next) {
				continue
			}
			i := next.Y*cols + next.X
			if seen[i] {
				continue
			}
			seen[i] = true
			prev[i] = cur.Y*cols + cur.X
			if visit != nil {
				visit(cur, next)
			}
			queue = append(queue, next)
		}
	}
	return prev
}
