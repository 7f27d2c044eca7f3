package pushnotification

import (
	"context"
	"log/slog"

	"github.com/tasknest/tasknest/internal/eventbus"
)

// Dispatcher turns task lifecycle events into push notifications. It runs
// until the context is cancelled.
type Dispatcher struct {
	eventBus *eventbus.Bus
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		sender:   sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.handleTaskEvent(ctx, event)
		}
	}
}

func (d *Dispatcher) handleTaskEvent(ctx context.Context, event *eventbus.Event) {
	var title string
	switch event.Type {
	case eventbus.EventTypeTaskCreated:
		title = "Task created"
	case eventbus.EventTypeTaskUpdated:
		title = "Task updated"
	case eventbus.EventTypeTaskDeleted:
		title = "Task deleted"
	default:
		return
	}

	body := event.Metadata["title"]
	var url string
	if event.Type != eventbus.EventTypeTaskDeleted {
		url = "/tasks/" + event.ResourceID
	}

	d.sender.SendToAll(ctx, &NotificationPayload{
		Title: title,
		Body:  body,
		URL:   url,
		Tag:   event.ResourceID,
	})
}
