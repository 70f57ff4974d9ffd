package testing

import (
	"github.com/sugawarayuuta/sonnet"
)

// EnvelopeMessage describes one message object of a synthetic poll response.
type EnvelopeMessage struct {
	// Payload is marshaled as the "d" value.
	Payload any

	// Channel is the "c" value.
	Channel string

	// Signal sets "e" to "1".
	Signal bool

	// PublishToken is the "p.t" value.
	PublishToken string

	// MatchOrGroup is the "b" value; empty omits it.
	MatchOrGroup string

	// Metadata is marshaled as the "u" value; nil omits it.
	Metadata any
}

type wirePublish struct {
	T string `json:"t"`
}

type wireMessage struct {
	D any         `json:"d"`
	C string      `json:"c"`
	E string      `json:"e,omitempty"`
	P wirePublish `json:"p"`
	B string      `json:"b,omitempty"`
	U any         `json:"u,omitempty"`
}

type wirePosition struct {
	T string `json:"t"`
	R *int   `json:"r,omitempty"`
}

type wireEnvelope struct {
	T wirePosition  `json:"t"`
	M []wireMessage `json:"m"`
}

// EnvelopeBuilder composes poll response bodies for tests.
//
// Example:
//
//	body := subtest.NewEnvelope("17000000000000000", 4).
//	    Add(subtest.EnvelopeMessage{Payload: "hi", Channel: "chan1", PublishToken: "17000000000000000-1"}).
//	    MustBuild()
type EnvelopeBuilder struct {
	token      string
	region     int
	omitRegion bool
	msgs       []EnvelopeMessage
}

// NewEnvelope starts an envelope carrying the given position.
func NewEnvelope(token string, region int) *EnvelopeBuilder {
	return &EnvelopeBuilder{token: token, region: region}
}

// WithoutRegion drops "t.r" from the envelope.
func (b *EnvelopeBuilder) WithoutRegion() *EnvelopeBuilder {
	b.omitRegion = true

	return b
}

// Add appends a message.
func (b *EnvelopeBuilder) Add(msgs ...EnvelopeMessage) *EnvelopeBuilder {
	b.msgs = append(b.msgs, msgs...)

	return b
}

// Build marshals the envelope.
func (b *EnvelopeBuilder) Build() ([]byte, error) {
	env := wireEnvelope{
		T: wirePosition{T: b.token},
		M: make([]wireMessage, 0, len(b.msgs)),
	}
	if !b.omitRegion {
		region := b.region
		env.T.R = &region
	}

	for _, m := range b.msgs {
		wm := wireMessage{
			D: m.Payload,
			C: m.Channel,
			P: wirePublish{T: m.PublishToken},
			B: m.MatchOrGroup,
			U: m.Metadata,
		}
		if m.Signal {
			wm.E = "1"
		}
		env.M = append(env.M, wm)
	}

	return sonnet.Marshal(env)
}

// MustBuild is like Build but panics on error.
func (b *EnvelopeBuilder) MustBuild() []byte {
	data, err := b.Build()
	if err != nil {
		panic(err)
	}

	return data
}
