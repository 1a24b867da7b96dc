// Package delivery defines what the coordinator needs from a chat channel,
// independent of the platform behind it.
package delivery

import "context"

// Target is a chat destination.
type Target struct {
	ChatID int64
}

type Action string

const (
	ActionRequestSnippet Action = "snippet"
	ActionViewHistory    Action = "history"
)

type EventKind int

const (
	MessageEvent EventKind = iota
	ActionEvent
)

// Event is one inbound update. ReplyTo is where responses to it go.
// CallbackID is set for action events and must be acknowledged exactly once.
type Event struct {
	Kind       EventKind
	ReplyTo    Target
	UserID     int64
	Text       string
	Action     Action
	CallbackID string
}

type Channel interface {
	SendText(ctx context.Context, to Target, text string) error
	// SendMenu sends text with the two action buttons attached.
	SendMenu(ctx context.Context, to Target, text string) error
	SendFile(ctx context.Context, to Target, path string) error
	Acknowledge(ctx context.Context, callbackID string) error
}
