// Package notice carries user-visible notices from the session manager and the order
// service to whatever surface is showing them. Failures of remote and storage operations
// only say that the operation failed; the reason goes to the log.
package notice

import "time"

// Level of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelFailure Level = "failure"
)

// Generic messages shown for failed operations.
const (
	MsgSomethingWentWrong = "something went wrong"
	MsgSignOutFailed      = "unable to sign out"
)

// Notice is a single message for the user.
type Notice struct {
	Level     Level     `json:"level"`
	Op        string    `json:"op"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(n Notice)
}

// Failure builds the generic failure notice for op.
func Failure(op, message string) Notice {
	return Notice{Level: LevelFailure, Op: op, Message: message, CreatedAt: time.Now()}
}

// Info builds an informational notice for op.
func Info(op, message string) Notice {
	return Notice{Level: LevelInfo, Op: op, Message: message, CreatedAt: time.Now()}
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) {}
