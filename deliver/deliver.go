// Package deliver classifies inbound SMPP PDUs - USSD, multipart SMS, plain
// SMS, in that order - decoding text via codec and reassembling multipart
// messages through an external key-value store.
package deliver

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"smpp-relay-core/codec"
	"smpp-relay-core/gwlog"
	"smpp-relay-core/pdu"
)

// Processor classifies and dispatches inbound PDUs. It is a pure,
// stateless transformer; its only mutable collaborator is the injected
// Store.
type Processor struct {
	codec *codec.Table
	store Store
	log   *gwlog.LogManager
}

// New builds a Processor over the given codec table and multipart store.
func New(c *codec.Table, store Store, log *gwlog.LogManager) *Processor {
	return &Processor{codec: c, store: store, log: log}
}

// ClassifyUSSD marks a PDU as USSD when ussd_service_op is present among
// its optional parameters, derives session_event and session_info from the
// vendor octets, and dispatches. Returns false ("not handled") otherwise.
func (p *Processor) ClassifyUSSD(d *pdu.PDU, dispatch Callback) bool {
	serviceOp, ok := d.OptString("ussd_service_op")
	if !ok {
		return false
	}

	sessionEvent := ussdSessionEvent(serviceOp, p.log)

	sessionInfoHex, _ := d.OptString("its_session_info")
	endSession := false
	sessionInfoOut := sessionInfoHex
	if sessionInfoHex != "" {
		v, err := strconv.ParseUint(sessionInfoHex, 16, 16)
		if err == nil {
			endSession = v&1 == 1
			sessionInfoOut = fmt.Sprintf("%04x", v&0xFFFE)
		}
	}
	if endSession {
		sessionEvent = SessionClose
	}

	decoded, _ := p.codec.Decode(d.Bytes("short_message"), d.DataCoding())

	dispatch(InboundMessage{
		SourceAddr:      d.String("source_addr"),
		DestinationAddr: d.String("destination_addr"),
		ShortMessage:    decoded,
		MessageType:     USSD,
		SessionEvent:    sessionEvent,
		SessionInfo:     sessionInfoOut,
	})
	return true
}

// ussdSessionEvent maps the hex ussd_service_op octet to a session event.
// Any value other than 01/11/02/12 falls back to close.
func ussdSessionEvent(op string, log *gwlog.LogManager) SessionEvent {
	switch op {
	case "01":
		return SessionNew
	case "11":
		return SessionClose
	case "02", "12":
		return SessionContinue
	default:
		if log != nil {
			log.SendLog(log.BuildLog("deliver", "InvalidUSSDOp", logrus.WarnLevel, map[string]interface{}{"ussd_service_op": op}, op))
		}
		return SessionClose
	}
}

// extractConcatHeader looks for a concatenation header in the PDU's SAR
// optional parameters first, then falls back to an in-band UDH at the front
// of short_message. Returns the stripped payload to use for the fragment
// (SAR fragments carry the full payload in short_message; UDH fragments
// carry it after the header).
func extractConcatHeader(d *pdu.PDU) (concatHeader, []byte, bool) {
	ref, refOK := d.OptInt("sar_msg_ref_num")
	total, totalOK := d.OptInt("sar_total_segments")
	seq, seqOK := d.OptInt("sar_segment_seqnum")
	if refOK && totalOK && seqOK {
		return concatHeader{reference: ref, total: total, sequence: seq}, d.Bytes("short_message"), true
	}

	if h, payload, ok := parseUDH(d.Bytes("short_message")); ok {
		return h, payload, true
	}
	return concatHeader{}, nil, false
}

// ClassifyMultipart detects a concatenation header (SAR or UDH), reassembles
// the message via the store, and dispatches once complete. Returns false
// when no concatenation header is present.
func (p *Processor) ClassifyMultipart(ctx context.Context, d *pdu.PDU, dispatch Callback) (bool, error) {
	header, payload, ok := extractConcatHeader(d)
	if !ok {
		return false, nil
	}

	sourceAddr := d.String("source_addr")
	key := reassemblyKey(header, sourceAddr)
	skey := storeKey(key)

	raw, found, err := p.store.Get(ctx, skey)
	if err != nil {
		return true, fmt.Errorf("deliver: load multipart buffer %s: %w", skey, err)
	}
	buffer, err := loadBuffer(raw, found)
	if err != nil {
		return true, err
	}

	buffer[header.sequence] = part{
		PartMessage: hex.EncodeToString(payload),
		FromMSISDN:  sourceAddr,
		ToMSISDN:    d.String("destination_addr"),
	}

	if isComplete(buffer, header.total) {
		if err := p.store.Delete(ctx, skey); err != nil {
			return true, fmt.Errorf("deliver: delete multipart buffer %s: %w", skey, err)
		}

		concatenated, err := concatenate(buffer, header.total)
		if err != nil {
			return true, err
		}
		decoded, _ := p.codec.Decode(concatenated, d.DataCoding())

		if p.log != nil {
			p.log.SendLog(p.log.BuildLog("deliver", "MultipartComplete", logrus.InfoLevel, map[string]interface{}{"key": key}, key))
		}

		dispatch(InboundMessage{
			SourceAddr:      sourceAddr,
			DestinationAddr: d.String("destination_addr"),
			ShortMessage:    decoded,
			MessageType:     SMS,
		})
		return true, nil
	}

	encoded, err := saveBuffer(buffer)
	if err != nil {
		return true, err
	}
	if err := p.store.Set(ctx, skey, encoded); err != nil {
		return true, fmt.Errorf("deliver: save multipart buffer %s: %w", skey, err)
	}
	if p.log != nil {
		p.log.SendLog(p.log.BuildLog("deliver", "MultipartIncomplete", logrus.DebugLevel, map[string]interface{}{"key": key}, key, len(buffer), header.total))
	}
	return true, nil
}

// ClassifyPlain treats the PDU as a single plain SMS: message_payload (the
// long-message extension field) takes precedence over short_message.
// Always returns true - there is no "not handled" case for plain SMS.
func (p *Processor) ClassifyPlain(d *pdu.PDU, dispatch Callback) bool {
	var raw []byte
	if b, ok := d.OptHexBytes("message_payload"); ok {
		raw = b
	} else {
		raw = d.Bytes("short_message")
	}

	decoded, _ := p.codec.Decode(raw, d.DataCoding())
	dispatch(InboundMessage{
		SourceAddr:      d.String("source_addr"),
		DestinationAddr: d.String("destination_addr"),
		ShortMessage:    decoded,
		MessageType:     SMS,
	})
	return true
}

