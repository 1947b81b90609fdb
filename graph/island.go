package graph

import (
	"fmt"
	"strings"

	"correspondence/corpus"
	apperrors "correspondence/errors"
)

// Island is the connected component of the graph around a seed.
type Island struct {
	Seed  string `json:"seed"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// IDs returns the canonical ids of the island's nodes in visit order.
func (is *Island) IDs() []string {
	out := make([]string, len(is.Nodes))
	for i, n := range is.Nodes {
		out[i] = n.ID
	}
	return out
}

// Extract resolves seed case and whitespace insensitively and returns every
// node reachable from it, in breadth-first order, with every edge whose
// endpoints are both reachable. An unresolved seed yields ErrSeedNotFound.
func Extract(g *Graph, seed string) (*Island, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, apperrors.InvalidInputf("seed identifier is empty")
	}

	start := corpus.NormalizeID(seed)
	if _, ok := g.nodes[start]; !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrSeedNotFound, seed)
	}

	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	var order []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, next := range g.adj[cur] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	island := &Island{
		Seed:  g.nodes[start].ID,
		Nodes: make([]Node, 0, len(order)),
		Edges: []Edge{},
	}
	for _, key := range order {
		island.Nodes = append(island.Nodes, *g.nodes[key])
	}
	for _, k := range g.edges {
		_, okA := visited[k.a]
		_, okB := visited[k.b]
		if okA && okB {
			island.Edges = append(island.Edges, g.edge(k))
		}
	}
	return island, nil
}
