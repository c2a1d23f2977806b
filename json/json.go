// Package json implements the wire formats shared by the websocket
// transport and the REST history client: outbound client frames, inbound
// server frames, and persisted turn records.
package json

import (
	"encoding/json"
	"fmt"

	"github.com/parleyhq/parley"
)

// Inbound frame types.
const (
	frameChunk = "chunk"
	frameDone  = "done"
	frameError = "error"
)

// clientFrame is the outbound wire format: one frame per submitted turn.
type clientFrame struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// serverFrame is the inbound wire format.
type serverFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// MarshalClientFrame encodes a user submission with its bearer credential.
func MarshalClientFrame(message, token string) ([]byte, error) {
	data, err := json.Marshal(clientFrame{Message: message, Token: token})
	if err != nil {
		return nil, fmt.Errorf("marshal client frame: %w", err)
	}
	return data, nil
}

// UnmarshalServerFrame decodes one inbound frame into a session event:
// chunk carries an incremental fragment, done signals completion (its
// content field is unused; finalization uses accumulated fragments), and
// error carries an in-band failure message. Unparseable payloads and
// unknown frame types are errors; callers drop such frames with a local
// diagnostic rather than failing the session.
func UnmarshalServerFrame(data []byte) (parley.Event, error) {
	var f serverFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal server frame: %w", err)
	}
	switch f.Type {
	case frameChunk:
		return parley.EventFragment{Text: f.Content}, nil
	case frameDone:
		return parley.EventCompleted{}, nil
	case frameError:
		return parley.EventServerError{Message: f.Content}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
}
