package mutation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mindfulpath/practicesite/internal/client/request"
)

// Op names a mutation kind.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReorder Op = "reorder"
	OpSave    Op = "save"
)

var verbs = map[Op]string{
	OpCreate:  "create",
	OpUpdate:  "update",
	OpDelete:  "delete",
	OpReorder: "reorder",
	OpSave:    "save",
}

// Error reports a failed mutation. The cache has already been restored when it is returned.
type Error struct {
	Op    Op
	Label string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Label, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Notice is a dismissible, user-facing failure notification.
type Notice struct {
	Title       string
	Message     string
	Detail      string
	Dismissible bool
}

// Notice describes the failure for the person who triggered it.
func (e *Error) Notice() Notice {
	verb, ok := verbs[e.Op]
	if !ok {
		verb = string(e.Op)
	}

	n := Notice{
		Title:       "Changes not saved",
		Message:     fmt.Sprintf("Failed to %s %s. Please try again.", verb, e.Label),
		Dismissible: true,
	}
	if reqErr, ok := request.AsError(e.Err); ok {
		switch {
		case reqErr.IsNetwork():
			n.Detail = "The server could not be reached."
		case reqErr.Message != "":
			n.Detail = reqErr.Message
		}
	}
	return n
}

// Notifier receives failure notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Log *zap.Logger
}

func (l LogNotifier) Notify(n Notice) {
	if l.Log == nil {
		return
	}
	l.Log.Warn(n.Message, zap.String("title", n.Title), zap.String("detail", n.Detail))
}
