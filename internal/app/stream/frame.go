/*
Package stream pushes change notifications to connected browsers over
WebSockets.

Frames only say what changed ("messages", "dm", ...) or that it is time to
re-check ("tick"); clients then re-read through the JSON API. While a signed-in
client is connected its presence heartbeat is kept alive from the server.
*/
package stream

import (
	"encoding/json"

	"satorugram/internal/app/fanout"
)

// FrameType is the type of a frame sent to the client.
type FrameType string

const (
	// FrameHello is the first frame of every connection.
	FrameHello FrameType = "hello"

	// FrameTick asks the client to re-read everything it shows.
	FrameTick FrameType = "tick"

	FrameError FrameType = "error"
)

// Frame is one server to client message. Change notifications use the
// category name as their type.
type Frame struct {
	Type      FrameType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// HelloData describes the session the connection belongs to.
type HelloData struct {
	UserID       string `json:"userId,omitempty"`
	PollInterval int64  `json:"pollInterval"`
}

// ErrorData carries an error code and message.
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// inbound is a client to server message.
type inbound struct {
	Type string `json:"type"`
}

// inboundHeartbeat asks for an immediate presence heartbeat, e.g. when the
// page regains focus.
const inboundHeartbeat = "heartbeat"

func frameFor(c fanout.Category) FrameType {
	if c == fanout.Tick {
		return FrameTick
	}
	return FrameType(c)
}

func encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}
