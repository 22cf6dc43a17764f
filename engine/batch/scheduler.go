package batch

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/slok/goresilience"
	resilienceerrors "github.com/slok/goresilience/errors"

	"github.com/focusmcp/focusmcp/engine/omnifocus"
)

// readyItem orders the ready queue by (orderHint, input index).
type readyItem struct {
	hint  int
	index int
}

type readyQueue []readyItem

func (q readyQueue) Len() int { return len(q) }
func (q readyQueue) Less(i, j int) bool {
	if q[i].hint != q[j].hint {
		return q[i].hint < q[j].hint
	}
	return q[i].index < q[j].index
}
func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)   { *q = append(*q, x.(readyItem)) }
func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// scheduler is the resolution state of one Run call.
type scheduler struct {
	graph    *graph
	creator  Creator
	runner   goresilience.Runner
	results  []*ItemResult
	realIDs  map[string]string
	children map[int][]int
	ready    *readyQueue
}

func newScheduler(g *graph, creator Creator, runner goresilience.Runner, results []*ItemResult) *scheduler {
	s := &scheduler{
		graph:    g,
		creator:  creator,
		runner:   runner,
		results:  results,
		realIDs:  make(map[string]string),
		children: g.children(results),
		ready:    &readyQueue{},
	}
	for i := range g.items {
		if results[i] != nil {
			continue
		}
		if _, waits := g.parent(i); !waits {
			s.push(i)
		}
	}
	return s
}

func (s *scheduler) push(i int) {
	heap.Push(s.ready, readyItem{hint: s.graph.items[i].OrderHint, index: i})
}

// drain creates ready items until the queue is empty. Items left without a
// result afterwards were starved by a parent that never resolved.
func (s *scheduler) drain(ctx context.Context, onResult func(i int, res *ItemResult)) {
	for s.ready.Len() > 0 {
		i := heap.Pop(s.ready).(readyItem).index
		res := s.create(ctx, i)
		s.results[i] = res
		onResult(i, res)
		it := s.graph.items[i]
		if !res.Success || res.ID == "" || it.TempID == "" {
			continue
		}
		s.realIDs[it.TempID] = res.ID
		for _, child := range s.children[i] {
			s.push(child)
		}
	}
	for i, it := range s.graph.items {
		if s.results[i] == nil {
			s.results[i] = failure("Unresolved parentTempId: %s", it.ParentTempID)
			onResult(i, s.results[i])
		}
	}
}

func (s *scheduler) create(ctx context.Context, i int) *ItemResult {
	it := s.graph.items[i]
	var parent *Item
	if p, ok := s.graph.parent(i); ok {
		parent = &s.graph.items[p]
	}

	var outcome *omnifocus.Outcome
	call := func(ctx context.Context) (runErr error) {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("creator panicked: %v", r)
			}
		}()
		out, err := s.invoke(ctx, it, parent)
		if err != nil {
			return err
		}
		outcome = out
		return nil
	}

	var err error
	if s.runner == nil {
		err = call(ctx)
	} else {
		err = s.runner.Run(ctx, call)
	}
	switch {
	case errors.Is(err, resilienceerrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return failure("Item creation timed out")
	case err != nil:
		return failure("%s", err.Error())
	case outcome == nil:
		return failure("Creator returned no outcome")
	case !outcome.Success:
		msg := outcome.Error
		if msg == "" {
			msg = "Creation failed"
		}
		return failure("%s", msg)
	}
	return &ItemResult{Success: true, ID: outcome.ID}
}

// invoke substitutes the resolved parent into the payload and calls the
// creator. An explicit parent id always wins over a batch reference.
func (s *scheduler) invoke(ctx context.Context, it Item, parent *Item) (*omnifocus.Outcome, error) {
	switch p := it.Payload.(type) {
	case TaskPayload:
		in := p.TaskInput
		switch {
		case it.ExplicitParentID != "":
			in.ParentTaskID = it.ExplicitParentID
		case parent != nil:
			realID := s.realIDs[parent.TempID]
			if parent.Payload.Kind() == KindProject {
				in.ProjectID = realID
				in.ProjectName = ""
			} else {
				in.ParentTaskID = realID
			}
		}
		return s.creator.CreateTask(ctx, in)
	case ProjectPayload:
		in := p.ProjectInput
		if it.ExplicitParentID != "" {
			in.FolderID = it.ExplicitParentID
			in.FolderName = ""
		}
		return s.creator.CreateProject(ctx, in)
	default:
		return nil, fmt.Errorf("unsupported payload %T", it.Payload)
	}
}
