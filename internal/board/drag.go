package board

import (
	"sync"
	"time"
)

// DefaultDragCooldown is the window after a drop during which remote
// position patches are still ignored, preventing a peer's stale snapshot
// from visually snapping the note back before the just-written position
// has round-tripped.
const DefaultDragCooldown = 500 * time.Millisecond

// DragPhase is a note's interaction state.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragActive
	DragJustDropped
)

// DragEndFunc receives the final position when a gesture completes. This
// is the only point at which a drag persists anything: one write per
// gesture, not per pixel.
type DragEndFunc func(noteID string, final Position)

// DragController translates pointer events into per-note position state,
// suppressing remote overwrites during and just after a local drag.
type DragController struct {
	cooldown  time.Duration
	now       func() time.Time
	onDragEnd DragEndFunc

	mu    sync.Mutex
	notes map[string]*dragEntry
}

type dragEntry struct {
	dragging     bool
	pointerStart Position
	noteStart    Position
	position     Position
	droppedUntil time.Time
}

func NewDragController(cooldown time.Duration, onDragEnd DragEndFunc) *DragController {
	if cooldown <= 0 {
		cooldown = DefaultDragCooldown
	}
	return &DragController{
		cooldown:  cooldown,
		now:       time.Now,
		onDragEnd: onDragEnd,
		notes:     make(map[string]*dragEntry),
	}
}

// SetPosition seeds or overwrites a note's rendered position outside of
// any gesture, e.g. from the initial load.
func (d *DragController) SetPosition(noteID string, pos Position) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entry(noteID).position = pos
}

// Position returns the rendered position for a note.
func (d *DragController) Position(noteID string) (Position, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.notes[noteID]
	if !ok {
		return Position{}, false
	}
	return e.position, true
}

// Phase reports a note's current interaction state.
func (d *DragController) Phase(noteID string) DragPhase {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.notes[noteID]
	if !ok {
		return DragIdle
	}
	return d.phaseLocked(e)
}

func (d *DragController) phaseLocked(e *dragEntry) DragPhase {
	if e.dragging {
		return DragActive
	}
	if d.now().Before(e.droppedUntil) {
		return DragJustDropped
	}
	return DragIdle
}

// PointerDown begins a gesture. Only the primary button on the drag
// handle starts a drag; the note's current position is snapshotted.
func (d *DragController) PointerDown(noteID string, pointer Position, primaryButton bool) bool {
	if !primaryButton {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	e := d.entry(noteID)
	if e.dragging {
		return false
	}
	e.dragging = true
	e.pointerStart = pointer
	e.noteStart = e.position
	return true
}

// PointerMove updates the rendered position from the pointer delta. Purely
// local; nothing is persisted per move.
func (d *DragController) PointerMove(noteID string, pointer Position) (Position, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.notes[noteID]
	if !ok || !e.dragging {
		return Position{}, false
	}
	e.position = Position{
		X: e.noteStart.X + (pointer.X - e.pointerStart.X),
		Y: e.noteStart.Y + (pointer.Y - e.pointerStart.Y),
	}
	return e.position, true
}

// PointerUp ends the gesture, arms the just-dropped window and hands the
// final position to the drag-end callback.
func (d *DragController) PointerUp(noteID string) (Position, bool) {
	d.mu.Lock()
	e, ok := d.notes[noteID]
	if !ok || !e.dragging {
		d.mu.Unlock()
		return Position{}, false
	}
	e.dragging = false
	e.droppedUntil = d.now().Add(d.cooldown)
	final := e.position
	cb := d.onDragEnd
	d.mu.Unlock()

	if cb != nil {
		cb(noteID, final)
	}
	return final, true
}

// ApplyRemotePosition applies an externally-supplied position unless the
// note is mid-gesture or inside the just-dropped window. Returns whether
// the position was accepted.
func (d *DragController) ApplyRemotePosition(noteID string, pos Position) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := d.entry(noteID)
	if d.phaseLocked(e) != DragIdle {
		return false
	}
	e.position = pos
	return true
}

// Forget drops tracking state for a removed note.
func (d *DragController) Forget(noteID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notes, noteID)
}

func (d *DragController) entry(noteID string) *dragEntry {
	e, ok := d.notes[noteID]
	if !ok {
		e = &dragEntry{}
		d.notes[noteID] = e
	}
	return e
}
