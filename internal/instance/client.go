package instance

import (
	"errors"
	"fmt"
	"net"
)

// Ping checks whether a live primary answers on socketPath.
func Ping(socketPath string) error {
	_, err := roundTrip(socketPath, Envelope{Kind: KindRequest, Op: OpPing})
	return err
}

// NotifyShow asks the running primary to bring its window to the foreground.
// Used by a secondary instance just before it exits.
func NotifyShow(socketPath string) error {
	resp, err := roundTrip(socketPath, Envelope{Kind: KindRequest, Op: OpShow})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("instance: show rejected: %s", resp.Error)
	}
	return nil
}

func roundTrip(socketPath string, req Envelope) (Envelope, error) {
	if socketPath == "" {
		return Envelope{}, errors.New("instance: socket path is required")
	}
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return Envelope{}, fmt.Errorf("instance: dial %s: %w", socketPath, err)
	}
	defer conn.Close()

	if err := writeEnvelope(conn, req); err != nil {
		return Envelope{}, err
	}
	resp, err := readEnvelope(conn)
	if err != nil {
		return Envelope{}, err
	}
	if resp.Kind != KindResponse {
		return Envelope{}, fmt.Errorf("instance: unexpected frame kind %q", resp.Kind)
	}
	return resp, nil
}
