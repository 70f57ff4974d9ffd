// Package transport carries poll requests built by a subscription.Session to
// an origin and hands back the raw response.
//
// Every Do call yields exactly one outcome: a Response, or one of the
// transport errors from the types package (ErrTimeout, ErrCancelled,
// ErrConnectFailed, ErrReplyTooBig, or a *StatusError matching ErrHTTPStatus).
// Transport errors are never reported as format errors; parsing the body is
// the session's job.
//
// Two implementations are provided: HTTP, which talks to the origin directly,
// and NATS, which forwards the request over a NATS request/reply subject to a
// bridge that owns the upstream connection.
package transport
