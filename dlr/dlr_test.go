package dlr

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpp-relay-core/pdu"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	re, err := regexp.Compile(DefaultRegexPattern)
	require.NoError(t, err)
	return New(nil, re, nil)
}

func TestHandlePDU_MissingFieldsNotHandled(t *testing.T) {
	p := newTestProcessor(t)
	mapping := []struct {
		name string
		d    *pdu.PDU
	}{
		{"missing both", pdu.New()},
		{"missing message_state", func() *pdu.PDU {
			d := pdu.New()
			d.Optional["receipted_message_id"] = "abc123"
			return d
		}()},
		{"missing receipted_message_id", func() *pdu.PDU {
			d := pdu.New()
			d.Optional["message_state"] = 2
			return d
		}()},
	}

	for _, m := range mapping {
		t.Run(m.name, func(t *testing.T) {
			handled := p.HandlePDU(m.d, func(string, Status) { t.Fatal("should not emit") })
			assert.False(t, handled)
		})
	}
}

func TestHandlePDU_DeliveredScenario(t *testing.T) {
	p := newTestProcessor(t)
	d := pdu.New()
	d.Optional["receipted_message_id"] = "abc123"
	d.Optional["message_state"] = 2

	var gotID string
	var gotStatus Status
	handled := p.HandlePDU(d, func(id string, status Status) {
		gotID, gotStatus = id, status
	})

	require.True(t, handled)
	assert.Equal(t, "abc123", gotID)
	assert.Equal(t, Delivered, gotStatus)
}

func TestHandlePDU_OutOfRangeStateIsUnknownThenPending(t *testing.T) {
	p := newTestProcessor(t)
	d := pdu.New()
	d.Optional["receipted_message_id"] = "xyz"
	d.Optional["message_state"] = 42

	var gotStatus Status
	p.HandlePDU(d, func(_ string, status Status) { gotStatus = status })
	assert.Equal(t, Pending, gotStatus)
}

func TestHandleText_RegexDeliveryReceipt(t *testing.T) {
	p := newTestProcessor(t)
	content := "id:XYZ sub:001 dlvrd:001 submit date:1401010000 done date:1401010005 stat:DELIVRD err:000 text:Hello"

	var gotID string
	var gotStatus Status
	handled := p.HandleText(content, func(id string, status Status) {
		gotID, gotStatus = id, status
	})

	require.True(t, handled)
	assert.Equal(t, "XYZ", gotID)
	assert.Equal(t, Delivered, gotStatus)
}

func TestHandleText_NoMatchIsNotHandled(t *testing.T) {
	p := newTestProcessor(t)
	handled := p.HandleText("not a delivery receipt at all", func(string, Status) {
		t.Fatal("should not emit")
	})
	assert.False(t, handled)
}

func TestHandleText_UnknownStatDegradesToPending(t *testing.T) {
	p := newTestProcessor(t)
	content := "id:XYZ sub:001 dlvrd:001 submit date:1401010000 done date:1401010005 stat:WEIRDXX err:000 text:Hello"

	var gotStatus Status
	handled := p.HandleText(content, func(_ string, status Status) { gotStatus = status })
	require.True(t, handled)
	assert.Equal(t, Pending, gotStatus)
}

func TestCanonicalStatusesAreIdempotent(t *testing.T) {
	p := newTestProcessor(t)
	for _, s := range []Status{Delivered, Failed, Pending} {
		assert.Equal(t, s, p.resolve(string(s)))
	}
}
