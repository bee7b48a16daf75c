package dto

// BoardConfigResponse publishes the server's board policy so clients can
// construct their engines with matching settings.
type BoardConfigResponse struct {
	NoteLimit          int     `json:"noteLimit"`
	PresenceIntervalMs int64   `json:"presenceIntervalMs"`
	DragCooldownMs     int64   `json:"dragCooldownMs"`
	SpawnMinX          float64 `json:"spawnMinX"`
	SpawnMaxX          float64 `json:"spawnMaxX"`
	SpawnMinY          float64 `json:"spawnMinY"`
	SpawnMaxY          float64 `json:"spawnMaxY"`
}
