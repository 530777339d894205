package transport

import "context"

// Update is an inbound event from the messaging platform. The command layer
// (outside this core) consumes these; the scheduler only sends.
type Update struct {
	Message *Message
}

type Message struct {
	ID           int
	OwnerID      string // platform chat identity, stringified
	FromUsername string
	Text         string
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	ReplyTo        int // message id to reply to; 0 for none
}

type MessageRef struct {
	OwnerID   string
	MessageID int
}

// Adapter is a messaging platform binding. SendText is the delivery
// primitive the reminder engine relies on; Start feeds inbound updates to
// the out channel until the context is cancelled.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, ownerID, text string, opt *SendOptions) (MessageRef, error)
}
