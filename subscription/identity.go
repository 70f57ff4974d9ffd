package subscription

// Identity supplies the caller credentials placed in every poll request.
//
// The core only reads from it. Implementations that allow changing the auth key
// at runtime must make the getters safe for concurrent use.
type Identity interface {
	// SubscribeKey returns the subscribe key used in the request path. Required.
	SubscribeKey() string

	// UUID returns the caller identity; empty omits the "uuid" parameter.
	UUID() string

	// AuthKey returns the auth credential; empty omits the "auth" parameter.
	AuthKey() string
}

// StaticIdentity is an Identity with fixed values.
type StaticIdentity struct {
	Key  string
	User string
	Auth string
}

var _ Identity = StaticIdentity{}

// SubscribeKey returns the configured subscribe key.
func (i StaticIdentity) SubscribeKey() string { return i.Key }

// UUID returns the configured caller identity.
func (i StaticIdentity) UUID() string { return i.User }

// AuthKey returns the configured auth credential.
func (i StaticIdentity) AuthKey() string { return i.Auth }
