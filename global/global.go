package global

import (
	"fmt"
	"runtime"

	dumpx "github.com/gookit/goutil/dump"
	"go.uber.org/zap"
)

const Name = "Idea Board"

// Logger is the process-wide logger, set once by the run command.
var Logger *zap.Logger

func Log() *zap.Logger {
	return Logger
}

// Dump pretty-prints values with the caller location, debugging helper.
func Dump(a ...any) {
	_, file, line, ok := runtime.Caller(1)
	if ok {
		fmt.Printf("\033[32m%s:%d:\033[0m\n", file, line)
	}
	dumpx.P(a...)
}
