// Package graph builds the undirected citation graph of the corpus, extracts
// the island around a seed document and orders an island into a timeline.
//
// Node identity is case and whitespace insensitive: "A-12", "a-12" and
// "A -12" are the same node. A graph is rebuilt from a fresh fetch for every
// request and is not shared between requests.
package graph

import (
	"encoding/json"

	"correspondence/corpus"
)

// Node is one identifier in the graph. Dangling nodes are references to
// letters that are not in the corpus.
type Node struct {
	ID       string           `json:"id"`
	Dangling bool             `json:"dangling"`
	Document *corpus.Document `json:"document,omitempty"`
}

// Edge is an undirected citation between two nodes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type edgeKey struct {
	a, b string
}

func newEdgeKey(x, y string) edgeKey {
	if y < x {
		x, y = y, x
	}
	return edgeKey{a: x, b: y}
}

// Graph is the citation graph. Nodes and edges keep insertion order so that
// output is deterministic for a given input order.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []edgeKey
	seen  map[edgeKey]struct{}
	adj   map[string][]string
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		seen:  make(map[edgeKey]struct{}),
		adj:   make(map[string][]string),
	}
}

// Build registers a node for every document's letter_no and for every token
// of its ref_letters, and an edge per distinct citation. Documents without a
// letter_no are skipped. The first document with a given letter_no supplies
// the node's metadata. A document citing its own letter_no adds no edge.
func Build(docs []corpus.Document) *Graph {
	g := newGraph()
	for i := range docs {
		doc := docs[i]
		from := g.addDocument(doc)
		if from == "" {
			continue
		}
		for _, ref := range doc.References() {
			to := g.addReference(ref)
			if to == "" || to == from {
				continue
			}
			g.addEdge(from, to)
		}
	}
	return g
}

func (g *Graph) addDocument(doc corpus.Document) string {
	key := corpus.NormalizeID(doc.LetterNo)
	if key == "" {
		return ""
	}
	doc.Embedding = nil
	if n, ok := g.nodes[key]; ok {
		if n.Dangling {
			// A reference seen earlier is now backed by a document. The id
			// keeps the first-seen spelling.
			n.Dangling = false
			n.Document = &doc
		}
		return key
	}
	g.nodes[key] = &Node{ID: doc.LetterNo, Document: &doc}
	g.order = append(g.order, key)
	return key
}

func (g *Graph) addReference(ref string) string {
	key := corpus.NormalizeID(ref)
	if key == "" {
		return ""
	}
	if _, ok := g.nodes[key]; !ok {
		g.nodes[key] = &Node{ID: ref, Dangling: true}
		g.order = append(g.order, key)
	}
	return key
}

func (g *Graph) addEdge(a, b string) {
	k := newEdgeKey(a, b)
	if _, ok := g.seen[k]; ok {
		return
	}
	g.seen[k] = struct{}{}
	g.edges = append(g.edges, k)
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Resolve maps a user-supplied identifier to the canonical node id.
func (g *Graph) Resolve(id string) (string, bool) {
	n, ok := g.nodes[corpus.NormalizeID(id)]
	if !ok {
		return "", false
	}
	return n.ID, true
}

// Node returns the node for id, matched case and whitespace insensitively.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[corpus.NormalizeID(id)]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, *g.nodes[key])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, k := range g.edges {
		out = append(out, g.edge(k))
	}
	return out
}

// Neighbors returns the canonical ids adjacent to id.
func (g *Graph) Neighbors(id string) []string {
	adj := g.adj[corpus.NormalizeID(id)]
	out := make([]string, len(adj))
	for i, key := range adj {
		out[i] = g.nodes[key].ID
	}
	return out
}

func (g *Graph) edge(k edgeKey) Edge {
	return Edge{From: g.nodes[k.a].ID, To: g.nodes[k.b].ID}
}

type graphJSON struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MarshalJSON encodes the graph as {nodes, edges}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Nodes: g.Nodes(), Edges: g.Edges()})
}
