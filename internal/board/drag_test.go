package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock drives the controller's notion of time in tests.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDrag(onEnd DragEndFunc) (*DragController, *fixedClock) {
	clock := &fixedClock{t: time.Unix(1000, 0)}
	d := NewDragController(DefaultDragCooldown, onEnd)
	d.now = clock.now
	return d, clock
}

func TestDragGesture(t *testing.T) {
	var endedID string
	var endedPos Position
	ends := 0
	d, _ := newTestDrag(func(noteID string, final Position) {
		endedID = noteID
		endedPos = final
		ends++
	})

	d.SetPosition("n1", Position{X: 100, Y: 200})
	require.Equal(t, DragIdle, d.Phase("n1"))

	require.True(t, d.PointerDown("n1", Position{X: 10, Y: 20}, true))
	assert.Equal(t, DragActive, d.Phase("n1"))

	pos, moved := d.PointerMove("n1", Position{X: 25, Y: 50})
	require.True(t, moved)
	assert.Equal(t, Position{X: 115, Y: 230}, pos)

	final, dropped := d.PointerUp("n1")
	require.True(t, dropped)
	assert.Equal(t, Position{X: 115, Y: 230}, final)
	assert.Equal(t, "n1", endedID)
	assert.Equal(t, final, endedPos)
	assert.Equal(t, 1, ends, "one persist per gesture")

	// A second up without a down does nothing.
	_, dropped = d.PointerUp("n1")
	assert.False(t, dropped)
	assert.Equal(t, 1, ends)
}

func TestDragNonPrimaryButtonIgnored(t *testing.T) {
	d, _ := newTestDrag(nil)
	assert.False(t, d.PointerDown("n1", Position{}, false))
	assert.Equal(t, DragIdle, d.Phase("n1"))
	_, moved := d.PointerMove("n1", Position{X: 5})
	assert.False(t, moved)
}

func TestDragSuppressesRemotePositions(t *testing.T) {
	d, clock := newTestDrag(nil)
	d.SetPosition("n1", Position{X: 10, Y: 10})

	require.True(t, d.PointerDown("n1", Position{}, true))
	d.PointerMove("n1", Position{X: 30, Y: 0})

	// Mid-gesture: a peer's stale position must not snap the note back.
	assert.False(t, d.ApplyRemotePosition("n1", Position{X: 10, Y: 10}))

	final, _ := d.PointerUp("n1")
	assert.Equal(t, DragJustDropped, d.Phase("n1"))

	// Still inside the cooldown window.
	clock.advance(DefaultDragCooldown / 2)
	assert.False(t, d.ApplyRemotePosition("n1", Position{X: 10, Y: 10}))
	got, ok := d.Position("n1")
	require.True(t, ok)
	assert.Equal(t, final, got)

	// Past the window the note is idle again and remote wins.
	clock.advance(DefaultDragCooldown)
	assert.Equal(t, DragIdle, d.Phase("n1"))
	assert.True(t, d.ApplyRemotePosition("n1", Position{X: 99, Y: 99}))
	got, _ = d.Position("n1")
	assert.Equal(t, Position{X: 99, Y: 99}, got)
}

func TestDragRemoteAcceptedWhenIdle(t *testing.T) {
	d, _ := newTestDrag(nil)
	assert.True(t, d.ApplyRemotePosition("n1", Position{X: 1, Y: 2}))
	got, ok := d.Position("n1")
	require.True(t, ok)
	assert.Equal(t, Position{X: 1, Y: 2}, got)
}

func TestDragForget(t *testing.T) {
	d, _ := newTestDrag(nil)
	d.SetPosition("n1", Position{X: 1, Y: 1})
	d.Forget("n1")
	_, ok := d.Position("n1")
	assert.False(t, ok)
	assert.Equal(t, DragIdle, d.Phase("n1"))
}

func TestDragDoubleDownIgnored(t *testing.T) {
	d, _ := newTestDrag(nil)
	require.True(t, d.PointerDown("n1", Position{}, true))
	assert.False(t, d.PointerDown("n1", Position{X: 50}, true))
}
