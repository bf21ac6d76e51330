// Package submit chooses an outbound long-message transmission strategy and
// computes USSD session-info octets, making exactly one call on the
// injected Protocol per Send.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/sirupsen/logrus"

	"smpp-relay-core/codec"
	"smpp-relay-core/gwlog"
	"smpp-relay-core/smpp/coding"
)

// SessionEvent mirrors deliver.SessionEvent; kept as its own type so submit
// has no dependency on the deliver package (outbound and inbound are
// independent leaves).
type SessionEvent string

const (
	SessionNew      SessionEvent = "new"
	SessionContinue SessionEvent = "continue"
	SessionClose    SessionEvent = "close"
)

// Strategy names the long-message policy selected for a given Send call.
type Strategy string

const (
	StrategyPlain Strategy = "submit"
	StrategyLong  Strategy = "submit_long"
	StrategySAR   Strategy = "submit_sar"
	StrategyUDH   Strategy = "submit_udh"
)

// ErrNonASCIIAddress is returned when to_addr or from_addr contains bytes
// outside 7-bit ASCII. This is fatal per-message, never recovered silently.
var ErrNonASCIIAddress = errors.New("submit: address is not 7-bit ASCII")

// Config is the outbound-side configuration surface. At most one of the
// three long-message booleans may be true; Validate enforces this.
type Config struct {
	SubmitEncoding    string
	SubmitDataCoding  byte
	SendLongMessages  bool
	SendMultipartSAR  bool
	SendMultipartUDH  bool
}

// Validate checks the mutual exclusivity of the long-message flags. A
// configuration that violates it is a fatal load-time error.
func (c Config) Validate() error {
	count := 0
	for _, b := range []bool{c.SendLongMessages, c.SendMultipartSAR, c.SendMultipartUDH} {
		if b {
			count++
		}
	}
	if count > 1 {
		return errors.New("submit: send_long_messages, send_multipart_sar, send_multipart_udh are mutually exclusive")
	}
	return nil
}

func (c Config) strategy() Strategy {
	switch {
	case c.SendLongMessages:
		return StrategyLong
	case c.SendMultipartSAR:
		return StrategySAR
	case c.SendMultipartUDH:
		return StrategyUDH
	default:
		return StrategyPlain
	}
}

// OutboundMessage is the normalized message a transport hands to SubmitProcessor.
type OutboundMessage struct {
	ToAddr             string
	FromAddr           string
	Content            string
	MessageID          string
	SessionEvent       SessionEvent
	TransportType      string
	TransportMetadata  map[string]string
}

// Protocol is the injected collaborator that owns wire-level segmentation
// and reference-number allocation. Each method is called at most once per
// Send.
type Protocol interface {
	Submit(ctx context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error
	SubmitLong(ctx context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error
	SubmitSAR(ctx context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error
	SubmitUDH(ctx context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error
}

// MetricsSink receives a segment-count estimate for observability; it never
// influences which bytes are actually transmitted.
type MetricsSink interface {
	ObserveSubmit(strategy Strategy, estimatedSegments int)
}

// payloadExtensionThreshold is the point past which the payload-extension
// strategy switches from a plain submit to submit_long.
const payloadExtensionThreshold = 254

// Processor implements the four-way long-message strategy choice. Its only
// mutable collaborator is the injected Protocol; the config is immutable
// after construction.
type Processor struct {
	cfg     Config
	metrics MetricsSink
	log     *gwlog.LogManager
}

// New builds a Processor. cfg must already have passed Validate.
func New(cfg Config, metrics MetricsSink, log *gwlog.LogManager) *Processor {
	return &Processor{cfg: cfg, metrics: metrics, log: log}
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Send encodes msg and dispatches exactly one call on protocol, chosen by
// the processor's configured long-message strategy.
func (p *Processor) Send(ctx context.Context, msg OutboundMessage, protocol Protocol) error {
	if !isASCII(msg.ToAddr) || !isASCII(msg.FromAddr) {
		return ErrNonASCIIAddress
	}

	encoded, err := codec.Encode(msg.Content, p.cfg.SubmitEncoding)
	if err != nil {
		return fmt.Errorf("submit: encode content with %s: %w", p.cfg.SubmitEncoding, err)
	}
	dataCoding := p.cfg.SubmitDataCoding

	optional := make(map[string]string)
	if msg.TransportType == "ussd" {
		p.augmentUSSD(msg, optional)
	}

	strategy := p.cfg.strategy()
	if strategy == StrategyLong && len(encoded) <= payloadExtensionThreshold {
		strategy = StrategyPlain
	}

	p.recordEstimate(strategy, msg.Content, dataCoding)

	if p.log != nil {
		p.log.SendLog(p.log.BuildLog("submit", "SubmitStrategy", logrus.InfoLevel,
			map[string]interface{}{"message_id": msg.MessageID, "strategy": string(strategy)},
			msg.MessageID, strategy))
	}

	toAddr := []byte(msg.ToAddr)
	fromAddr := []byte(msg.FromAddr)

	switch strategy {
	case StrategyLong:
		return protocol.SubmitLong(ctx, msg.MessageID, toAddr, fromAddr, encoded, dataCoding, optional)
	case StrategySAR:
		return protocol.SubmitSAR(ctx, msg.MessageID, toAddr, fromAddr, encoded, dataCoding, optional)
	case StrategyUDH:
		return protocol.SubmitUDH(ctx, msg.MessageID, toAddr, fromAddr, encoded, dataCoding, optional)
	default:
		return protocol.Submit(ctx, msg.MessageID, toAddr, fromAddr, encoded, dataCoding, optional)
	}
}

// augmentUSSD computes continue_session and the additive session-info
// value, per the caller contract documented in spec: addition, not
// bitwise-or, and well-defined only when the low bit tracked continue_session
// on the previous turn.
func (p *Processor) augmentUSSD(msg OutboundMessage, optional map[string]string) {
	continueSession := msg.SessionEvent != SessionClose

	sessionInfo := "0000"
	if msg.TransportMetadata != nil {
		if v, ok := msg.TransportMetadata["session_info"]; ok && v != "" {
			sessionInfo = v
		}
	}

	parsed, err := strconv.ParseUint(sessionInfo, 16, 16)
	if err != nil {
		parsed = 0
	}

	var increment uint64
	if !continueSession {
		increment = 1
	}
	newVal := parsed + increment

	optional["ussd_service_op"] = "02"
	optional["its_session_info"] = fmt.Sprintf("%04x", newVal)
}

func (p *Processor) recordEstimate(strategy Strategy, content string, dataCoding byte) {
	if p.metrics == nil {
		return
	}
	segments := coding.EstimateSegments(content, dataCoding)
	p.metrics.ObserveSubmit(strategy, len(segments))
}
