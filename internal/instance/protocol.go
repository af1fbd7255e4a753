package instance

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Frames are newline-delimited JSON envelopes. One request and one response
// per connection is all the coordinator ever needs.
const (
	KindRequest  = "request"
	KindResponse = "response"

	OpPing = "ping"
	OpShow = "show"
)

const (
	dialTimeout  = 2 * time.Second
	frameTimeout = 2 * time.Second

	// maxFrameSize bounds a single envelope line. Anything larger is garbage.
	maxFrameSize = 4 * 1024
)

// Envelope is the message exchanged between a secondary process and the
// running primary.
type Envelope struct {
	Kind  string `json:"kind"`
	Op    string `json:"op,omitempty"`
	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeEnvelope(conn net.Conn, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(frameTimeout)); err != nil {
		return err
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}

func readEnvelope(conn net.Conn) (Envelope, error) {
	if err := conn.SetReadDeadline(time.Now().Add(frameTimeout)); err != nil {
		return Envelope{}, err
	}
	reader := bufio.NewReaderSize(conn, maxFrameSize)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return Envelope{}, fmt.Errorf("read envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
