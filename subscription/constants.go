package subscription

// Protocol constants.
const (
	// MinEnvelopeLength is the shortest response that can hold the "t" object with
	// its token and region plus the "m" array.
	MinEnvelopeLength = 40

	// DefaultMaxPositionTokenLength is the longest position token accepted from a
	// response, in bytes.
	DefaultMaxPositionTokenLength = 19

	// ChannelPlaceholder is sent in the channel path segment when only channel
	// groups are subscribed.
	ChannelPlaceholder = ","

	// InitialPositionToken is sent as "tt" before any response has been parsed.
	InitialPositionToken = "0"

	// DefaultSDKName is the default value of the "pnsdk" query parameter.
	DefaultSDKName = "subpoll-go%2F1.0.0"
)

// Query parameter names, in the order they appear in a poll request.
const (
	ParamPositionToken = "tt"
	ParamSDK           = "pnsdk"
	ParamRegion        = "tr"
	ParamChannelGroup  = "channel-group"
	ParamUUID          = "uuid"
	ParamAuth          = "auth"
	ParamFilterExpr    = "filter-expr"
	ParamHeartbeat     = "heartbeat"
)
