package code

import (
	"fmt"
	"net/http"
)

// Code is a response code carried across the HTTP and WebSocket boundary.
// Error codes register themselves at init time; duplicates panic.
type Code struct {
	code        int
	status      bool
	msg         string
	data        any
	haveData    bool
	details     []string
	haveDetails bool
}

var codes = map[int]string{}

func NewError(code int, msg string) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("code %d already registered", code))
	}
	codes[code] = msg
	return &Code{code: code, status: false, msg: msg}
}

func NewSuccess(code int, msg string) *Code {
	return &Code{code: code, status: true, msg: msg}
}

// Reset drops the per-request payload so the shared instance can be reused.
func (e *Code) Reset() *Code {
	e.data = nil
	e.haveData = false
	e.details = nil
	e.haveDetails = false
	return e
}

// Clone returns a copy carrying no payload, for concurrent use.
func (e *Code) Clone() *Code {
	return &Code{code: e.code, status: e.status, msg: e.msg}
}

func (e *Code) Error() string {
	return e.msg
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.msg
}

func (e *Code) Data() any {
	return e.data
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) WithData(data any) *Code {
	c := e.Clone()
	c.data = data
	c.haveData = true
	c.details = e.details
	c.haveDetails = e.haveDetails
	return c
}

func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.data = e.data
	c.haveData = e.haveData
	c.details = append([]string{}, details...)
	c.haveDetails = true
	return c
}

// StatusCode keeps the transport-level status fixed; the body carries the
// application code.
func (e *Code) StatusCode() int {
	return http.StatusOK
}
