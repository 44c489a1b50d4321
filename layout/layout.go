// Package layout repositions workflow nodes by dependency depth: roots on
// the left, each BFS level one column further right, nodes within a level
// spread evenly down their column.
package layout

import "github.com/pipeboard/pipeboard"

// Options control the spacing of the computed positions.
type Options struct {
	// HorizontalGap separates consecutive levels.
	HorizontalGap float64
	// VerticalGap separates nodes within one level.
	VerticalGap float64
	// Origin is where the root column is anchored; columns are centered
	// vertically on Origin.Y.
	Origin pipeboard.Position
}

// DefaultOptions spaces nodes for the stock canvas node size.
func DefaultOptions() Options {
	return Options{HorizontalGap: 280, VerticalGap: 120}
}

// Apply assigns a position to every node in place.
//
// Roots are the nodes with no incoming edge; when every node has one (the
// graph is fully cyclic), an arbitrary single node is used so traversal has
// somewhere to start. Each reached node's level is its BFS distance from a
// root; nodes the traversal never reaches stay at level 0. Cycles terminate
// because visited nodes are never re-enqueued.
func Apply(nodes []pipeboard.Node, edges []pipeboard.Edge, opts Options) {
	if len(nodes) == 0 {
		return
	}
	if opts.HorizontalGap == 0 {
		opts.HorizontalGap = DefaultOptions().HorizontalGap
	}
	if opts.VerticalGap == 0 {
		opts.VerticalGap = DefaultOptions().VerticalGap
	}

	levels := assignLevels(nodes, edges)

	// Group node indices by level, preserving node order within a level.
	byLevel := map[int][]int{}
	maxLevel := 0
	for i, n := range nodes {
		lvl := levels[n.ID]
		byLevel[lvl] = append(byLevel[lvl], i)
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	for lvl := 0; lvl <= maxLevel; lvl++ {
		column := byLevel[lvl]
		if len(column) == 0 {
			continue
		}
		x := opts.Origin.X + float64(lvl)*opts.HorizontalGap
		// Center the column on Origin.Y.
		top := opts.Origin.Y - float64(len(column)-1)*opts.VerticalGap/2
		for slot, i := range column {
			nodes[i].Position = pipeboard.Position{
				X: x,
				Y: top + float64(slot)*opts.VerticalGap,
			}
		}
	}
}

// assignLevels computes each node's BFS distance from the root set.
func assignLevels(nodes []pipeboard.Node, edges []pipeboard.Edge) map[string]int {
	inDegree := make(map[string]int, len(nodes))
	adj := make(map[string][]string)
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range edges {
		if _, ok := inDegree[e.Target]; ok {
			inDegree[e.Target]++
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	if len(queue) == 0 {
		queue = append(queue, nodes[0].ID)
	}

	levels := make(map[string]int, len(nodes))
	visited := make(map[string]bool, len(nodes))
	for _, id := range queue {
		visited[id] = true
		levels[id] = 0
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if visited[next] {
				continue
			}
			visited[next] = true
			levels[next] = levels[id] + 1
			queue = append(queue, next)
		}
	}
	// Unreached nodes (only possible alongside a cyclic component) default
	// to level 0.
	return levels
}
