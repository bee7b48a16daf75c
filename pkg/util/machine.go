package util

import (
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineIDOnce sync.Once
	machineID     string
)

// GetMachineID returns a stable per-host identifier used to salt token keys.
// Falls back to a fixed string when the platform id cannot be read.
func GetMachineID() string {
	machineIDOnce.Do(func() {
		id, err := machineid.ProtectedID("idea-board")
		if err != nil {
			id = "unknown-machine"
		}
		machineID = id
	})
	return machineID
}
