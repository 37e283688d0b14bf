// Package event provides an in-process publish/subscribe bus.
//
// Topics are dot-separated names such as "history.undone". Subscriptions
// use patterns in which "*" matches exactly one segment and "**" matches
// any remaining segments:
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe("history.*", func(ctx context.Context, ev event.Event) error {
//	    change := ev.Payload.(event.HistoryChanged)
//	    undoButton.SetEnabled(change.CanUndo)
//	    return nil
//	})
//	defer bus.Unsubscribe(sub)
//
// Delivery is synchronous, in subscription order, on the publishing
// goroutine. A panicking handler is recovered and reported as an error.
package event
