// File: internal/graph/graph.go
// Brief: Stack dependency graph: validation and deterministic ordering.

// Package graph models the dependency relation between stacks and derives
// the orders the provisioning engine must honor: execution groups for apply,
// the exact reverse for destroy.
package graph

import (
	"fmt"
	"sort"
)

// Node is one stack and the names of the stacks it needs applied first.
type Node struct {
	Name  string
	Needs []string
}

type Graph struct {
	names      []string
	deps       map[string][]string
	dependents map[string][]string
	groups     [][]string
}

// Build validates the node set (known dependency targets, no cycles) and
// precomputes execution groups: stacks in the same group have no ordering
// relation and may apply concurrently.
func Build(nodes []Node) (*Graph, error) {
	g := &Graph{
		deps:       map[string][]string{},
		dependents: map[string][]string{},
	}
	known := map[string]struct{}{}
	for _, n := range nodes {
		if _, dup := known[n.Name]; dup {
			return nil, fmt.Errorf("duplicate stack %q", n.Name)
		}
		known[n.Name] = struct{}{}
		g.names = append(g.names, n.Name)
	}
	sort.Strings(g.names)

	for _, n := range nodes {
		for _, dep := range n.Needs {
			if _, ok := known[dep]; !ok {
				return nil, fmt.Errorf("stack %s needs missing stack %q", n.Name, dep)
			}
			if dep == n.Name {
				return nil, fmt.Errorf("stack %s depends on itself", n.Name)
			}
			g.deps[n.Name] = append(g.deps[n.Name], dep)
			g.dependents[dep] = append(g.dependents[dep], n.Name)
		}
	}
	for k := range g.deps {
		sort.Strings(g.deps[k])
	}
	for k := range g.dependents {
		sort.Strings(g.dependents[k])
	}
	groups, err := g.computeGroups()
	if err != nil {
		return nil, err
	}
	g.groups = groups
	return g, nil
}

func (g *Graph) computeGroups() ([][]string, error) {
	inDegree := map[string]int{}
	for _, name := range g.names {
		inDegree[name] = len(g.deps[name])
	}
	var ready []string
	for _, name := range g.names {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var groups [][]string
	assigned := 0
	for len(ready) > 0 {
		wave := append([]string(nil), ready...)
		ready = ready[:0]
		groups = append(groups, wave)
		assigned += len(wave)
		for _, name := range wave {
			for _, dependent := range g.dependents[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		}
		sort.Strings(ready)
	}
	if assigned != len(g.names) {
		var stuck []string
		for _, name := range g.names {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		if cycle := g.findCycle(stuck); len(cycle) > 0 {
			return nil, fmt.Errorf("dependency cycle detected: %s", cycleString(cycle))
		}
		return nil, fmt.Errorf("dependency cycle detected (%d stacks): %v", len(stuck), stuck)
	}
	return groups, nil
}

// ExecutionGroups returns apply waves in order; group i must complete before
// group i+1 starts.
func (g *Graph) ExecutionGroups() [][]string {
	out := make([][]string, len(g.groups))
	for i, grp := range g.groups {
		out[i] = append([]string(nil), grp...)
	}
	return out
}

// ApplyOrder flattens the execution groups into a deterministic total order.
func (g *Graph) ApplyOrder() []string {
	var out []string
	for _, grp := range g.groups {
		out = append(out, grp...)
	}
	return out
}

// DestroyOrder is the exact reverse of ApplyOrder: dependents are torn down
// before the stacks they need.
func (g *Graph) DestroyOrder() []string {
	apply := g.ApplyOrder()
	out := make([]string, len(apply))
	for i, name := range apply {
		out[len(apply)-1-i] = name
	}
	return out
}

// DepsOf returns the transitive dependency closure of name, sorted.
func (g *Graph) DepsOf(name string) []string {
	return g.walk(name, g.deps)
}

// DependentsOf returns every stack that transitively needs name, sorted.
func (g *Graph) DependentsOf(name string) []string {
	return g.walk(name, g.dependents)
}

func (g *Graph) walk(name string, edges map[string][]string) []string {
	var out []string
	seen := map[string]struct{}{}
	var visit func(string)
	visit = func(cur string) {
		for _, next := range edges[cur] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			out = append(out, next)
			visit(next)
		}
	}
	visit(name)
	sort.Strings(out)
	return out
}

// Edges lists every (from, needs) pair, sorted.
func (g *Graph) Edges() [][2]string {
	var edges [][2]string
	for from, deps := range g.deps {
		for _, to := range deps {
			edges = append(edges, [2]string{from, to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// Names returns all stack names, sorted.
func (g *Graph) Names() []string {
	return append([]string(nil), g.names...)
}

// findCycle runs a DFS over the stuck subgraph and extracts one cycle path
// for the error message.
func (g *Graph) findCycle(stuck []string) []string {
	stuckSet := map[string]struct{}{}
	for _, name := range stuck {
		stuckSet[name] = struct{}{}
	}
	vis := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	var cycle []string
	var dfs func(string) bool
	dfs = func(name string) bool {
		vis[name] = true
		onStack[name] = true
		stack = append(stack, name)
		for _, dep := range g.deps[name] {
			if _, ok := stuckSet[dep]; !ok {
				continue
			}
			if !vis[dep] {
				if dfs(dep) {
					return true
				}
				continue
			}
			if onStack[dep] {
				idx := -1
				for i := range stack {
					if stack[i] == dep {
						idx = i
						break
					}
				}
				if idx >= 0 {
					cycle = append([]string(nil), stack[idx:]...)
				} else {
					cycle = []string{dep, name}
				}
				return true
			}
		}
		onStack[name] = false
		stack = stack[:len(stack)-1]
		return false
	}
	for _, name := range stuck {
		if vis[name] {
			continue
		}
		if dfs(name) {
			break
		}
	}
	return cycle
}

func cycleString(cycle []string) string {
	parts := append([]string(nil), cycle...)
	if len(cycle) > 0 {
		parts = append(parts, cycle[0])
	}
	return fmt.Sprintf("%v", parts)
}
