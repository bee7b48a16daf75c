package board

import (
	"github.com/bytedance/sonic"
)

// Broadcast event names carried on the notes channel.
const (
	EventNoteAdded   = "note_added"
	EventNoteUpdated = "note_updated"
	EventNoteDeleted = "note_deleted"
	EventNoteVoted   = "note_voted"
)

// NoteEvent is the payload of every notes-channel broadcast. Each variant
// carries enough of the note's new state for peers to update without a
// re-fetch.
type NoteEvent struct {
	// Note is the full canonical row for note_added and note_updated.
	Note *Note `json:"note,omitempty"`
	// ID identifies the target for note_deleted and note_voted.
	ID string `json:"id,omitempty"`
	// Votes and VotedBy carry the derived vote state for note_voted.
	Votes   int64    `json:"votes,omitempty"`
	VotedBy []string `json:"votedBy,omitempty"`
}

func encodeNoteEvent(ev NoteEvent) []byte {
	data, _ := sonic.Marshal(ev)
	return data
}

func decodeNoteEvent(payload []byte) (NoteEvent, error) {
	var ev NoteEvent
	err := sonic.Unmarshal(payload, &ev)
	return ev, err
}
