// internal/sched/arena.go

package sched

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/trees/redblacktree"
)

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrNotOnCPU    = errors.New("task is not on the CPU slot")
)

// Place says which structure currently owns a task.
type Place int

const (
	PlaceReady Place = iota
	PlaceCPU
)

// Location is the current owner of a task: a ready queue level or the CPU slot.
type Location struct {
	Place Place
	Level int // only meaningful for PlaceReady
}

func (l Location) String() string {
	if l.Place == PlaceCPU {
		return "cpu"
	}
	return fmt.Sprintf("ready[%d]", l.Level)
}

// Ready returns the location of ready queue level.
func Ready(level int) Location { return Location{Place: PlaceReady, Level: level} }

// OnCPU is the location of the CPU slot.
var OnCPU = Location{Place: PlaceCPU}

type entry struct {
	task *Task
	loc  Location
}

// Arena is the single owner of every live task record.
// Queues and the CPU slot hold only TaskID handles.
type Arena struct {
	tree *redblacktree.Tree // TaskID -> *entry, ordered by handle
	next TaskID
}

// NewArena creates an empty arena. The first handle issued is 1.
func NewArena() *Arena {
	return &Arena{
		tree: redblacktree.NewWith(idCmp),
		next: 1,
	}
}

// Insert takes ownership of t, assigns its handle and places it on ready level 0.
func (a *Arena) Insert(t *Task) TaskID {
	t.ID = a.next
	a.next++
	a.tree.Put(t.ID, &entry{task: t, loc: Ready(0)})
	return t.ID
}

// Get returns the live task behind id.
func (a *Arena) Get(id TaskID) (*Task, bool) {
	e, ok := a.lookup(id)
	if !ok {
		return nil, false
	}
	return e.task, true
}

// Where returns the current owner of id.
func (a *Arena) Where(id TaskID) (Location, bool) {
	e, ok := a.lookup(id)
	if !ok {
		return Location{}, false
	}
	return e.loc, true
}

// Move transfers ownership of id to loc.
func (a *Arena) Move(id TaskID, loc Location) error {
	e, ok := a.lookup(id)
	if !ok {
		return fmt.Errorf("move task %d: %w", id, ErrUnknownTask)
	}
	e.loc = loc
	return nil
}

// Release drops a retired task. Only the CPU occupant can be released,
// since a task owned by a ready queue is still referenced there.
func (a *Arena) Release(id TaskID) error {
	e, ok := a.lookup(id)
	if !ok {
		return fmt.Errorf("release task %d: %w", id, ErrUnknownTask)
	}
	if e.loc.Place != PlaceCPU {
		return fmt.Errorf("release task %d at %s: %w", id, e.loc, ErrNotOnCPU)
	}
	a.tree.Remove(id)
	return nil
}

// Len is the number of live tasks.
func (a *Arena) Len() int { return a.tree.Size() }

// IDs lists live handles in ascending order.
func (a *Arena) IDs() []TaskID {
	keys := a.tree.Keys()
	ids := make([]TaskID, len(keys))
	for i, k := range keys {
		ids[i] = k.(TaskID)
	}
	return ids
}

func (a *Arena) lookup(id TaskID) (*entry, bool) {
	v, ok := a.tree.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// idCmp implements the Comparator for the arena tree.
func idCmp(a, b any) int {
	ka, kb := a.(TaskID), b.(TaskID)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
