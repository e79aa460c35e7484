package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrDuplicateNode = errors.New("dag: duplicate node")
	ErrUnknownDep    = errors.New("dag: unknown dependency")
	ErrCycle         = errors.New("dag: cycle detected")
)

// Node is one unit of work in a Graph. Run must not be nil.
type Node struct {
	Name StageName
	Deps []StageName
	Run  func(ctx context.Context) error
}

// Graph is a validated, static dependency graph split into levels. Every node
// of a level depends only on nodes of earlier levels.
type Graph struct {
	levels [][]Node
}

// NewGraph validates nodes and groups them into levels with Kahn's
// algorithm. Within a level nodes keep their declaration order.
func NewGraph(nodes ...Node) (*Graph, error) {
	index := make(map[StageName]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
		}
		if n.Run == nil {
			return nil, fmt.Errorf("dag: node %s has no run func", n.Name)
		}
		index[n.Name] = i
	}

	indeg := make([]int, len(nodes))
	outgoing := make([][]int, len(nodes))
	for i, n := range nodes {
		for _, dep := range n.Deps {
			j, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownDep, n.Name, dep)
			}
			indeg[i]++
			outgoing[j] = append(outgoing[j], i)
		}
	}

	var ready []int
	for i := range nodes {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	g := &Graph{}
	seen := 0
	for len(ready) > 0 {
		level := make([]Node, 0, len(ready))
		var next []int
		for _, i := range ready {
			level = append(level, nodes[i])
			seen++
			for _, m := range outgoing[i] {
				indeg[m]--
				if indeg[m] == 0 {
					next = append(next, m)
				}
			}
		}
		sort.Ints(next)
		g.levels = append(g.levels, level)
		ready = next
	}

	if seen != len(nodes) {
		var stuck []string
		for i, n := range nodes {
			if indeg[i] > 0 {
				stuck = append(stuck, string(n.Name))
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return g, nil
}

// Levels returns the node names per level.
func (g *Graph) Levels() [][]StageName {
	out := make([][]StageName, len(g.levels))
	for i, level := range g.levels {
		for _, n := range level {
			out[i] = append(out[i], n.Name)
		}
	}
	return out
}

// NodeResult is the settled state of one node.
type NodeResult struct {
	Name     StageName
	Duration time.Duration
	Err      error
}

// LevelResult describes one level after all of its nodes settled.
type LevelResult struct {
	Index int
	Nodes []NodeResult
	Wall  time.Duration
}

// Failed returns the first failed node of the level in declaration order.
func (l LevelResult) Failed() (NodeResult, bool) {
	for _, n := range l.Nodes {
		if n.Err != nil {
			return n, true
		}
	}
	return NodeResult{}, false
}

// Run executes the graph level by level. Nodes of one level run
// concurrently and the level settles only when every node returned, even if
// one failed early. afterLevel is called once per settled level; Run stops
// after the first failed level or afterLevel error.
func (g *Graph) Run(ctx context.Context, afterLevel func(LevelResult) error) error {
	for idx, level := range g.levels {
		res := LevelResult{Index: idx, Nodes: make([]NodeResult, len(level))}
		start := time.Now()

		var eg errgroup.Group
		for i, n := range level {
			eg.Go(func() error {
				nodeStart := time.Now()
				err := n.Run(ctx)
				res.Nodes[i] = NodeResult{Name: n.Name, Duration: time.Since(nodeStart), Err: err}
				return nil
			})
		}
		_ = eg.Wait()
		res.Wall = time.Since(start)

		var hookErr error
		if afterLevel != nil {
			hookErr = afterLevel(res)
		}
		if failed, ok := res.Failed(); ok {
			return failed.Err
		}
		if hookErr != nil {
			return hookErr
		}
	}
	return nil
}
