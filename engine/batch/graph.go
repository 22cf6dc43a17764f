package batch

import (
	"fmt"
	"slices"
	"strings"
)

// DuplicateTempIDError aborts a whole batch.
type DuplicateTempIDError struct {
	TempID string
}

func (e *DuplicateTempIDError) Error() string {
	return fmt.Sprintf("Duplicate tempId: %s", e.TempID)
}

// graph is the parentTempId reference structure of one batch.
type graph struct {
	items []Item
	index map[string]int
}

func buildGraph(items []Item) (*graph, error) {
	index := make(map[string]int, len(items))
	for i, it := range items {
		if it.TempID == "" {
			continue
		}
		if _, dup := index[it.TempID]; dup {
			return nil, &DuplicateTempIDError{TempID: it.TempID}
		}
		index[it.TempID] = i
	}
	return &graph{items: items, index: index}, nil
}

// parent returns the batch item i waits for. An explicit parent id takes
// precedence, so such items never wait on the batch.
func (g *graph) parent(i int) (int, bool) {
	it := g.items[i]
	if it.ExplicitParentID != "" || it.ParentTempID == "" {
		return -1, false
	}
	p, ok := g.index[it.ParentTempID]
	return p, ok
}

// cycles walks parent edges depth-first from every targetable item and
// returns the failure message for each cycle member.
func (g *graph) cycles() map[int]string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, len(g.items))
	found := make(map[int]string)

	for start, it := range g.items {
		if it.TempID == "" || state[start] != unvisited {
			continue
		}
		var path []int
		cur := start
		for {
			if state[cur] == onPath {
				members := path[slices.Index(path, cur):]
				msg := g.cycleMessage(members)
				for _, m := range members {
					found[m] = msg
				}
				break
			}
			if state[cur] == done {
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			next, ok := g.parent(cur)
			if !ok {
				break
			}
			cur = next
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return found
}

func (g *graph) cycleMessage(members []int) string {
	names := make([]string, 0, len(members)+1)
	for _, m := range members {
		names = append(names, g.label(m))
	}
	names = append(names, names[0])
	return "Cycle detected: " + strings.Join(names, " -> ")
}

func (g *graph) label(i int) string {
	if name := g.items[i].name(); name != "" {
		return name
	}
	return g.items[i].TempID
}

// children maps each batch parent to the items waiting on it, skipping
// items that already carry a result.
func (g *graph) children(results []*ItemResult) map[int][]int {
	out := make(map[int][]int)
	for i := range g.items {
		if results[i] != nil {
			continue
		}
		if p, ok := g.parent(i); ok {
			out[p] = append(out[p], i)
		}
	}
	return out
}
