// Package store keeps the notification list shown to the user.
//
// A Store holds exactly one batch at a time. Every decoded batch replaces the
// previous one in full; batches are never merged. The channel manager is the
// only writer, the rest of the application reads through Current or follows
// changes through Watch:
//
//	s := store.New()
//	for batch := range s.Watch(ctx) {
//		render(batch)
//	}
package store
