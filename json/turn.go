package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/parleyhq/parley"
)

// turnRecord is the persisted history wire format served by the backend.
type turnRecord struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalTurns decodes a history response into turns, preserving
// server-assigned order.
func UnmarshalTurns(data []byte) ([]parley.Turn, error) {
	var records []turnRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	turns := make([]parley.Turn, len(records))
	for i, r := range records {
		turn, err := turnFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		turns[i] = turn
	}
	return turns, nil
}

func turnFromRecord(r turnRecord) (parley.Turn, error) {
	switch parley.Role(r.Role) {
	case parley.RoleUser:
		return parley.UserTurn{ID: r.ID, Content: r.Content, CreatedAt: r.CreatedAt}, nil
	case parley.RoleAssistant:
		return parley.AssistantTurn{ID: r.ID, Content: r.Content, CreatedAt: r.CreatedAt}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", r.Role)
	}
}
