package parley

import "time"

// Role represents the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PendingTurnID is the reserved sentinel id of the single in-flight
// streaming placeholder. It never appears on a finalized turn.
const PendingTurnID = "pending"

// Turn is a sealed interface representing one entry in a conversation
// transcript. The unexported marker method prevents external implementations.
// Role() returns the turn's author without requiring a type switch.
type Turn interface {
	isTurn()
	Role() Role
}

// UserTurn is a message submitted by the user. Immutable once appended.
type UserTurn struct {
	ID        string
	Content   string
	CreatedAt time.Time
}

func (UserTurn) isTurn() {}

// Role returns RoleUser.
func (UserTurn) Role() Role { return RoleUser }

// AssistantTurn is a completed assistant response. Immutable once appended.
// Failed marks synthetic turns that carry an in-band server error message
// rather than an answer.
type AssistantTurn struct {
	ID        string
	Content   string
	CreatedAt time.Time
	Failed    bool
}

func (AssistantTurn) isTurn() {}

// Role returns RoleAssistant.
func (AssistantTurn) Role() Role { return RoleAssistant }

// PendingTurn is the single mutable placeholder for an assistant response
// still being streamed. Accumulated holds the fragments received so far.
// It is never persisted; completion replaces it with an AssistantTurn.
type PendingTurn struct {
	Accumulated string
	StartedAt   time.Time
}

func (PendingTurn) isTurn() {}

// Role returns RoleAssistant.
func (PendingTurn) Role() Role { return RoleAssistant }

// Interface compliance checks.
var (
	_ Turn = UserTurn{}
	_ Turn = AssistantTurn{}
	_ Turn = PendingTurn{}
)
