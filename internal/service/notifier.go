package service

import "github.com/google/uuid"

// Change actions published to live subscribers.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Notifier fans entity changes out to connected clients.
type Notifier interface {
	Publish(entity, action string, id uuid.UUID)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, string, uuid.UUID) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
