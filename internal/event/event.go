package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeUserRegistered    Type = "user.registered"
	TypeUserLoggedIn      Type = "user.logged_in"
	TypeUserLoginFailed   Type = "user.login_failed"
	TypeUserLoggedOut     Type = "user.logged_out"
	TypeSessionRotated    Type = "session.rotated"
	TypeSessionRejected   Type = "session.rejected"
	TypeAccountLinked     Type = "account.linked"
	TypeAccountCreatedSSO Type = "account.created_oauth"
)

type Event struct {
	ID         string
	Type       Type
	OccurredAt time.Time
	UserID     string
	Email      string
	IP         string
	Detail     string
}

// New stamps an event with a fresh id and the current time.
func New(typ Type, userID string, email string, detail string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
		Email:      email,
		Detail:     detail,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}

// Discard is a Bus that drops everything.
type Discard struct{}

func (Discard) Publish(Event) {}

func (Discard) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}
