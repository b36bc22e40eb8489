package dispatch

import "context"

// Handler is the external collaborator consumed by a Dispatcher: a
// function from (source, message) to completion, which may fail. A
// failure is swallowed at the dispatcher boundary. It is never
// propagated to the submitter of the message, and the message is still
// considered consumed.
//
// Handler is itself a function type, so no separate adapter type is
// needed. Any func(context.Context, S, M) error is a valid Handler.
type Handler[S comparable, M any] func(ctx context.Context, source S, message M) error
