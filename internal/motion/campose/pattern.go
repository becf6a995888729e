package campose

import "fmt"

// PatternKind names a connect-the-dots pattern shape.
type PatternKind string

const (
	PatternTriangle  PatternKind = "triangle"
	PatternRectangle PatternKind = "rectangle"
	PatternCircle    PatternKind = "circle"
)

// PatternSpec describes a pattern's target points and adjacency rule.
type PatternSpec struct {
	Kind PatternKind

	// Size is the number of target points.
	Size int

	// ringOnly restricts connections to neighboring indices (mod Size).
	// Triangles allow any-order traversal; rectangles and circles only
	// connect along the perimeter (no diagonals, no chord skips).
	ringOnly bool
}

// NewPatternSpec returns the spec for a pattern kind. Circle patterns
// take their point count from size; triangle and rectangle are fixed.
func NewPatternSpec(kind PatternKind, size int) (PatternSpec, error) {
	switch kind {
	case PatternTriangle:
		return PatternSpec{Kind: kind, Size: 3}, nil
	case PatternRectangle:
		return PatternSpec{Kind: kind, Size: 4, ringOnly: true}, nil
	case PatternCircle:
		if size < 3 {
			size = 8
		}
		return PatternSpec{Kind: kind, Size: size, ringOnly: true}, nil
	default:
		return PatternSpec{}, fmt.Errorf("campose: unknown pattern kind %q", kind)
	}
}

// adjacent reports whether points a and b may be connected directly.
func (s PatternSpec) adjacent(a, b int) bool {
	if !s.ringOnly {
		return true
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return d == 1 || d == s.Size-1
}

// ConnectionOutcome classifies one attempted connection.
type ConnectionOutcome int

const (
	// ConnectionAccepted extends the current traversal.
	ConnectionAccepted ConnectionOutcome = iota

	// ConnectionIncorrect violated the pattern's rule; progress for this
	// pattern resets. A semantic event, not an error.
	ConnectionIncorrect

	// PatternCompleted closed a fully valid traversal.
	PatternCompleted
)

// PatternEvent reports the outcome of one Connect call.
type PatternEvent struct {
	Outcome ConnectionOutcome
	Point   int
	Visited int // points visited after this connection
}

// PatternValidator is a discrete graph-traversal state machine over one
// pattern's target points. Any unvisited point may start a traversal;
// closing the loop requires returning to the first point after visiting
// every point. An invalid connection resets this pattern's progress only.
// There is no ROM associated with pattern play.
type PatternValidator struct {
	spec    PatternSpec
	visited []bool
	path    []int

	completed int
	incorrect int
}

// NewPatternValidator builds a validator for the given pattern.
func NewPatternValidator(spec PatternSpec) *PatternValidator {
	return &PatternValidator{
		spec:    spec,
		visited: make([]bool, spec.Size),
	}
}

// CompletedCount returns the number of fully valid traversals so far.
func (v *PatternValidator) CompletedCount() int { return v.completed }

// IncorrectCount returns the number of rule violations so far.
func (v *PatternValidator) IncorrectCount() int { return v.incorrect }

// Path returns the indices of the current in-progress traversal.
func (v *PatternValidator) Path() []int { return v.path }

// Reset clears traversal progress and counters.
func (v *PatternValidator) Reset() {
	v.resetProgress()
	v.completed = 0
	v.incorrect = 0
}

// Connect attempts to extend the traversal to the given point index.
func (v *PatternValidator) Connect(point int) PatternEvent {
	if point < 0 || point >= v.spec.Size {
		return v.fail(point)
	}

	if len(v.path) == 0 {
		v.visit(point)
		return PatternEvent{Outcome: ConnectionAccepted, Point: point, Visited: 1}
	}

	last := v.path[len(v.path)-1]

	// Closing the loop: back to the first point with everything visited.
	if point == v.path[0] && v.allVisited() {
		if v.spec.ringOnly && !v.spec.adjacent(last, point) {
			return v.fail(point)
		}
		v.completed++
		n := len(v.path)
		v.resetProgress()
		return PatternEvent{Outcome: PatternCompleted, Point: point, Visited: n}
	}

	if v.visited[point] || !v.spec.adjacent(last, point) {
		return v.fail(point)
	}

	v.visit(point)
	return PatternEvent{Outcome: ConnectionAccepted, Point: point, Visited: len(v.path)}
}

func (v *PatternValidator) visit(point int) {
	v.visited[point] = true
	v.path = append(v.path, point)
}

func (v *PatternValidator) allVisited() bool {
	for _, seen := range v.visited {
		if !seen {
			return false
		}
	}
	return true
}

func (v *PatternValidator) fail(point int) PatternEvent {
	v.incorrect++
	v.resetProgress()
	return PatternEvent{Outcome: ConnectionIncorrect, Point: point}
}

func (v *PatternValidator) resetProgress() {
	for i := range v.visited {
		v.visited[i] = false
	}
	v.path = v.path[:0]
}
