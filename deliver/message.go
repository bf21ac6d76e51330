package deliver

// MessageType distinguishes the two inbound message shapes this core
// produces.
type MessageType string

const (
	SMS  MessageType = "sms"
	USSD MessageType = "ussd"
)

// SessionEvent classifies a USSD exchange turn.
type SessionEvent string

const (
	SessionNew      SessionEvent = "new"
	SessionContinue SessionEvent = "continue"
	SessionClose    SessionEvent = "close"
)

// InboundMessage is the normalized record handed to the transport's router.
type InboundMessage struct {
	SourceAddr      string
	DestinationAddr string
	ShortMessage    []byte
	MessageType     MessageType
	SessionEvent    SessionEvent
	SessionInfo     string
}

// Callback receives a normalized inbound message.
type Callback func(InboundMessage)
