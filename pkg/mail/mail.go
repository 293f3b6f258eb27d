package mail

import (
	"context"
	"net/mail"
)

// Message is a fully rendered outbound email.
type Message struct {
	To       []mail.Address
	Subject  string
	TextBody string
	HTMLBody string
}

// HasRecipients reports whether the message can be delivered at all.
func (m Message) HasRecipients() bool { return len(m.To) > 0 }

// Mailer delivers a single message. Implementations must not retry; the
// caller decides what a failed send means.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
