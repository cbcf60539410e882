// Package channel manages the real-time notification connection of one
// client.
//
// A Manager opens a websocket to {base}/notifications/ws/{identifier},
// sends a "ping" keepalive as soon as the connection is open, decodes every
// inbound frame with pkg/codec and replaces the contents of a store.Store
// with each batch it receives.
//
// # Lifecycle
//
// Each Open starts a new instance with its own generation number and a
// state machine:
//
//	idle -> connecting -> open -> closing -> closed -> idle
//	           |           |
//	           +-> errored +-> closed
//
// Only the newest generation may touch the store. Frames, dial results and
// errors of a superseded instance are logged at debug level and dropped, and
// a connection that completes after its instance was released is closed
// immediately. Switching to a different identifier clears the store first.
//
// A transport error moves the instance to errored and is reported through
// the handler registered with WithErrorHandler. The Manager does not
// reconnect on its own; calling Open again with the same identifier starts a
// fresh attempt.
//
// Frames that fail to decode are logged at warn level and skipped; they never
// close the connection.
//
// # Usage
//
//	st := store.New()
//	m, err := channel.NewFromConfig(cfg, st, channel.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	if err := m.Bind(ctx, identity.Authenticated(userID)); err != nil {
//		return err
//	}
//	for batch := range st.Watch(ctx) {
//		render(batch)
//	}
package channel
