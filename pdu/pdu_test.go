package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringAndBytesAccessors(t *testing.T) {
	p := New()
	p.Mandatory["source_addr"] = "12345"
	p.Mandatory["short_message"] = []byte("hello")

	assert.Equal(t, "12345", p.String("source_addr"))
	assert.Equal(t, []byte("hello"), p.Bytes("short_message"))
	assert.Equal(t, "", p.String("missing"))
	assert.Nil(t, p.Bytes("missing"))
}

func TestDataCoding_DefaultsToZero(t *testing.T) {
	p := New()
	assert.Equal(t, byte(0), p.DataCoding())

	p.Mandatory["data_coding"] = byte(8)
	assert.Equal(t, byte(8), p.DataCoding())

	p.Mandatory["data_coding"] = 3
	assert.Equal(t, byte(3), p.DataCoding())
}

func TestOptString_PresenceFlag(t *testing.T) {
	p := New()
	_, ok := p.OptString("receipted_message_id")
	assert.False(t, ok)

	p.Optional["receipted_message_id"] = "abc123"
	v, ok := p.OptString("receipted_message_id")
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestOptInt_AcceptsVariousIntegerTypes(t *testing.T) {
	mapping := []struct {
		name string
		val  any
	}{
		{"int", 2},
		{"int64", int64(2)},
		{"byte", byte(2)},
	}
	for _, m := range mapping {
		t.Run(m.name, func(t *testing.T) {
			p := New()
			p.Optional["message_state"] = m.val
			got, ok := p.OptInt("message_state")
			assert.True(t, ok)
			assert.Equal(t, 2, got)
		})
	}
}

func TestOptHexBytes_RoundTrip(t *testing.T) {
	p := New()
	p.Optional["message_payload"] = "48656c6c6f"
	got, ok := p.OptHexBytes("message_payload")
	assert.True(t, ok)
	assert.Equal(t, []byte("Hello"), got)
}

func TestOptHexBytes_InvalidHexIsNotOK(t *testing.T) {
	p := New()
	p.Optional["message_payload"] = "not-hex"
	_, ok := p.OptHexBytes("message_payload")
	assert.False(t, ok)
}
