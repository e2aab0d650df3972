// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

type CallID string
type TaskID string
type SessionID string
type PostID string
type AgentID string

func NewCallID() CallID {
	return CallID(uuid.New().String())
}

func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func NewPostID() PostID {
	return PostID(uuid.New().String())
}
