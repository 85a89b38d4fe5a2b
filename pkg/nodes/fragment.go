package nodes

import "github.com/matzehuels/dungeonforge/pkg/layout"

// Direction is the heading a path grows in.
type Direction int

const (
	Right Direction = iota
	Down
	Left
	Up
)

var directionNames = [...]string{"right", "down", "left", "up"}

func (d Direction) String() string { return directionNames[d.norm()] }

// Turn rotates d by quarter turns; positive is clockwise.
func (d Direction) Turn(quarters int) Direction {
	return Direction((int(d) + quarters%4 + 4) % 4)
}

// Opposite returns the reverse heading.
func (d Direction) Opposite() Direction { return d.Turn(2) }

func (d Direction) norm() int { return ((int(d) % 4) + 4) % 4 }

// PathHeading returns the heading of the i-th path leaving a fan-out:
// right, down, left, up, repeating.
func PathHeading(i int) Direction { return Direction(i % 4) }

// Fragment is the partial content handed along one edge: where the path
// currently ends and which way it is growing.
type Fragment struct {
	// Anchor is the room the path currently ends in; empty before the
	// first room of a run.
	Anchor string
	// Joins lists further rooms that converged at a merge. The next room
	// on the path connects to every one of them.
	Joins []string
	// Cursor is where the first room is placed when there is no anchor.
	Cursor layout.Position
	// Heading is the direction the next room is placed in.
	Heading Direction
	// Weight is the product of normalized branch weights along the path.
	Weight float64
	// Source is the node that emitted the fragment.
	Source string
}

// Outputs maps output port IDs to the fragment emitted on them. Output
// ports missing from the map are pruned: nothing downstream of them runs
// unless another path reaches it.
type Outputs map[string]Fragment

// with returns a copy of f re-stamped as emitted by node.
func (f Fragment) with(node string) Fragment {
	f.Source = node
	return f
}
