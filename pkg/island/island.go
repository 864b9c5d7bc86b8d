// Package island counts the connected components ("islands") of a mesh's
// vertex/edge graph. The count decides how many convex pieces a collision
// mesh is split into by the model compiler.
package island

import (
	"errors"
	"fmt"
)

// ErrUnknownVertex is returned when an edge references a vertex that is not
// part of the vertex set.
var ErrUnknownVertex = errors.New("island: edge references unknown vertex")

// Adjacency maps each vertex to the vertices reachable over one edge.
// It is immutable once built; traversals keep their own visited set.
type Adjacency struct {
	order     []int         // vertices in first-seen input order
	neighbors map[int][]int // vertex -> distinct neighbours
}

// NewAdjacency builds the adjacency map in a single pass over edges.
//
// Duplicate vertex entries are treated as one vertex. Self-loops (both
// endpoints equal) are ignored: a vertex is never its own neighbour.
// Duplicate edges, in either direction, collapse to one.
func NewAdjacency(vertices []int, edges [][2]int) (*Adjacency, error) {
	a := &Adjacency{
		order:     make([]int, 0, len(vertices)),
		neighbors: make(map[int][]int, len(vertices)),
	}
	for _, v := range vertices {
		if _, ok := a.neighbors[v]; ok {
			continue
		}
		a.neighbors[v] = nil
		a.order = append(a.order, v)
	}

	seen := make(map[[2]int]struct{}, len(edges))
	for i, e := range edges {
		u, v := e[0], e[1]
		if _, ok := a.neighbors[u]; !ok {
			return nil, fmt.Errorf("%w: edge %d (%d, %d): vertex %d", ErrUnknownVertex, i, u, v, u)
		}
		if _, ok := a.neighbors[v]; !ok {
			return nil, fmt.Errorf("%w: edge %d (%d, %d): vertex %d", ErrUnknownVertex, i, u, v, v)
		}
		if u == v {
			continue
		}
		key := [2]int{u, v}
		if v < u {
			key = [2]int{v, u}
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		a.neighbors[u] = append(a.neighbors[u], v)
		a.neighbors[v] = append(a.neighbors[v], u)
	}
	return a, nil
}

// Len returns the number of distinct vertices.
func (a *Adjacency) Len() int {
	return len(a.order)
}

// Vertices returns the vertex set in first-seen input order.
func (a *Adjacency) Vertices() []int {
	out := make([]int, len(a.order))
	copy(out, a.order)
	return out
}

// Neighbors returns the neighbours of v. The returned slice must not be modified.
func (a *Adjacency) Neighbors(v int) []int {
	return a.neighbors[v]
}

// Count returns the number of islands.
func (a *Adjacency) Count() int {
	visited := make(map[int]bool, len(a.order))
	n := 0
	for _, seed := range a.order {
		if visited[seed] {
			continue
		}
		n++
		a.sweep(seed, visited, nil)
	}
	return n
}

// Islands returns the vertex set of every island, in discovery order.
// Seeds are taken in vertex input order, so the result is deterministic.
func (a *Adjacency) Islands() [][]int {
	visited := make(map[int]bool, len(a.order))
	var islands [][]int
	for _, seed := range a.order {
		if visited[seed] {
			continue
		}
		var members []int
		a.sweep(seed, visited, func(v int) { members = append(members, v) })
		islands = append(islands, members)
	}
	return islands
}

// sweep marks everything reachable from seed as visited, one breadth-first
// level at a time. Each step keeps only the still-unvisited frontier
// vertices, marks them, and expands to the union of their neighbours. The
// sweep ends when the frontier holds no unvisited vertex.
func (a *Adjacency) sweep(seed int, visited map[int]bool, visit func(int)) {
	frontier := []int{seed}
	var next []int
	for {
		next = next[:0]
		eligible := 0
		for _, v := range frontier {
			if visited[v] {
				continue
			}
			visited[v] = true
			eligible++
			if visit != nil {
				visit(v)
			}
			for _, w := range a.neighbors[v] {
				if !visited[w] {
					next = append(next, w)
				}
			}
		}
		if eligible == 0 {
			return
		}
		frontier, next = next, frontier
	}
}

// Count returns the number of connected components of the graph formed by
// vertices and edges. It is 0 only for an empty vertex set.
func Count(vertices []int, edges [][2]int) (int, error) {
	a, err := NewAdjacency(vertices, edges)
	if err != nil {
		return 0, err
	}
	return a.Count(), nil
}
