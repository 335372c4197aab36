package notify

import (
	"context"

	"github.com/aman-churiwal/getyoursite/internal/models"
)

// Notification is what a Notifier delivers: the stored (escaped) submission
// plus the sender's raw address for replies.
type Notification struct {
	Submission models.Submission
	ReplyTo    string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error

	// Name identifies the notifier in logs.
	Name() string
}
