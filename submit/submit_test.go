package submit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpp-relay-core/codec"
)

type recordedCall struct {
	method     string
	messageID  string
	toAddr     string
	fromAddr   string
	message    []byte
	dataCoding byte
	optional   map[string]string
}

type fakeProtocol struct {
	calls []recordedCall
}

func (f *fakeProtocol) Submit(_ context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error {
	f.calls = append(f.calls, recordedCall{"submit", messageID, string(toAddr), string(fromAddr), message, dataCoding, optional})
	return nil
}
func (f *fakeProtocol) SubmitLong(_ context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error {
	f.calls = append(f.calls, recordedCall{"submit_long", messageID, string(toAddr), string(fromAddr), message, dataCoding, optional})
	return nil
}
func (f *fakeProtocol) SubmitSAR(_ context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error {
	f.calls = append(f.calls, recordedCall{"submit_sar", messageID, string(toAddr), string(fromAddr), message, dataCoding, optional})
	return nil
}
func (f *fakeProtocol) SubmitUDH(_ context.Context, messageID string, toAddr, fromAddr []byte, message []byte, dataCoding byte, optional map[string]string) error {
	f.calls = append(f.calls, recordedCall{"submit_udh", messageID, string(toAddr), string(fromAddr), message, dataCoding, optional})
	return nil
}

func TestValidate_MutuallyExclusiveFlags(t *testing.T) {
	cfg := Config{SendLongMessages: true, SendMultipartSAR: true}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AtMostOneFlagIsFine(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{SendMultipartUDH: true}.Validate())
}

func TestSend_NonASCIIAddressIsFatal(t *testing.T) {
	p := New(Config{}, nil, nil)
	proto := &fakeProtocol{}
	err := p.Send(context.Background(), OutboundMessage{ToAddr: "héllo", FromAddr: "1234", Content: "hi"}, proto)
	assert.ErrorIs(t, err, ErrNonASCIIAddress)
	assert.Empty(t, proto.calls)
}

func TestSend_PlainSMSWhenNoStrategyConfigured(t *testing.T) {
	p := New(Config{SubmitDataCoding: 0}, nil, nil)
	proto := &fakeProtocol{}
	err := p.Send(context.Background(), OutboundMessage{ToAddr: "1234", FromAddr: "5678", Content: "hi", MessageID: "m1"}, proto)
	require.NoError(t, err)
	require.Len(t, proto.calls, 1)
	assert.Equal(t, "submit", proto.calls[0].method)
}

func TestSend_LongMessageViaPayloadExtension(t *testing.T) {
	p := New(Config{SendLongMessages: true}, nil, nil)
	proto := &fakeProtocol{}
	longText := strings.Repeat("a", 300)

	err := p.Send(context.Background(), OutboundMessage{ToAddr: "1234", FromAddr: "5678", Content: longText, MessageID: "m2"}, proto)
	require.NoError(t, err)
	require.Len(t, proto.calls, 1)

	call := proto.calls[0]
	assert.Equal(t, "submit_long", call.method)
	assert.Equal(t, []byte(longText), call.message)
	assert.Equal(t, byte(0), call.dataCoding)
}

func TestSend_ShortMessageWithLongMessagesFlagStaysPlain(t *testing.T) {
	p := New(Config{SendLongMessages: true}, nil, nil)
	proto := &fakeProtocol{}
	err := p.Send(context.Background(), OutboundMessage{ToAddr: "1234", FromAddr: "5678", Content: "short", MessageID: "m3"}, proto)
	require.NoError(t, err)
	assert.Equal(t, "submit", proto.calls[0].method)
}

func TestSend_SARStrategy(t *testing.T) {
	p := New(Config{SendMultipartSAR: true}, nil, nil)
	proto := &fakeProtocol{}
	err := p.Send(context.Background(), OutboundMessage{ToAddr: "1234", FromAddr: "5678", Content: "hi", MessageID: "m4"}, proto)
	require.NoError(t, err)
	assert.Equal(t, "submit_sar", proto.calls[0].method)
}

func TestSend_UDHStrategy(t *testing.T) {
	p := New(Config{SendMultipartUDH: true}, nil, nil)
	proto := &fakeProtocol{}
	err := p.Send(context.Background(), OutboundMessage{ToAddr: "1234", FromAddr: "5678", Content: "hi", MessageID: "m5"}, proto)
	require.NoError(t, err)
	assert.Equal(t, "submit_udh", proto.calls[0].method)
}

func TestSend_USSDAugmentation_NewSessionAdditive(t *testing.T) {
	p := New(Config{}, nil, nil)
	proto := &fakeProtocol{}
	msg := OutboundMessage{
		ToAddr: "1234", FromAddr: "5678", Content: "hi", MessageID: "m6",
		TransportType:     "ussd",
		SessionEvent:      SessionContinue,
		TransportMetadata: map[string]string{"session_info": "0010"},
	}
	err := p.Send(context.Background(), msg, proto)
	require.NoError(t, err)

	opt := proto.calls[0].optional
	assert.Equal(t, "02", opt["ussd_service_op"])
	assert.Equal(t, "0010", opt["its_session_info"]) // continue => +0
}

func TestSend_USSDAugmentation_CloseSessionIncrementsLowBit(t *testing.T) {
	p := New(Config{}, nil, nil)
	proto := &fakeProtocol{}
	msg := OutboundMessage{
		ToAddr: "1234", FromAddr: "5678", Content: "bye", MessageID: "m7",
		TransportType:     "ussd",
		SessionEvent:      SessionClose,
		TransportMetadata: map[string]string{"session_info": "0010"},
	}
	err := p.Send(context.Background(), msg, proto)
	require.NoError(t, err)

	opt := proto.calls[0].optional
	assert.Equal(t, "0011", opt["its_session_info"]) // close => +1
}

func TestSend_NonDefaultEncodingAppliesConfiguredCharset(t *testing.T) {
	p := New(Config{SubmitEncoding: codec.Latin1, SubmitDataCoding: 3}, nil, nil)
	proto := &fakeProtocol{}

	err := p.Send(context.Background(), OutboundMessage{ToAddr: "1234", FromAddr: "5678", Content: "café", MessageID: "m9"}, proto)
	require.NoError(t, err)
	require.Len(t, proto.calls, 1)

	want, err := codec.Encode("café", codec.Latin1)
	require.NoError(t, err)
	assert.Equal(t, want, proto.calls[0].message)
	assert.NotEqual(t, []byte("café"), proto.calls[0].message)
}

func TestSend_UnencodableContentForConfiguredCharsetIsFatal(t *testing.T) {
	p := New(Config{SubmitEncoding: codec.Latin1}, nil, nil)
	proto := &fakeProtocol{}

	err := p.Send(context.Background(), OutboundMessage{ToAddr: "1234", FromAddr: "5678", Content: "日本語", MessageID: "m10"}, proto)
	assert.Error(t, err)
	assert.Empty(t, proto.calls)
}

func TestSend_USSDDefaultSessionInfoWhenAbsent(t *testing.T) {
	p := New(Config{}, nil, nil)
	proto := &fakeProtocol{}
	msg := OutboundMessage{
		ToAddr: "1234", FromAddr: "5678", Content: "hi", MessageID: "m8",
		TransportType: "ussd",
		SessionEvent:  SessionNew,
	}
	err := p.Send(context.Background(), msg, proto)
	require.NoError(t, err)
	assert.Equal(t, "0000", proto.calls[0].optional["its_session_info"])
}
