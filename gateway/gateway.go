// Package gateway wires the core processors (codec, dlr, deliver, submit)
// to their shared collaborators - the multipart store, the bind-credential
// directory, the metrics exporter, and the log manager - and exposes the two
// emitted callbacks as plain Go funcs. The protocol object is not held here:
// callers pass it to Submit.Send on each call.
package gateway

import (
	"context"
	"fmt"

	"smpp-relay-core/binddir"
	"smpp-relay-core/codec"
	"smpp-relay-core/config"
	"smpp-relay-core/deliver"
	"smpp-relay-core/dlr"
	"smpp-relay-core/gwlog"
	"smpp-relay-core/metrics"
	"smpp-relay-core/pdu"
	"smpp-relay-core/submit"
)

// Gateway owns the four processors and their collaborators for one running
// SMPP core instance.
type Gateway struct {
	Codec   *codec.Table
	DLR     *dlr.Processor
	Deliver *deliver.Processor
	Submit  *submit.Processor

	Directory *binddir.Directory
	Metrics   *metrics.Exporter
	Log       *gwlog.LogManager

	OnInbound        deliver.Callback
	OnDeliveryReport dlr.Callback
}

// New builds a Gateway from configuration and the concrete store/bind
// directory collaborators. directory may be nil when bind authentication is
// not required (e.g. tests, or a deployment that authenticates upstream).
func New(cfg *config.Config, store deliver.Store, directory *binddir.Directory) *Gateway {
	log := gwlog.NewLogManager()
	exporter := metrics.New()

	codecTable := codec.NewTable(cfg.DataCodingOverrides, log)
	dlrProcessor := dlr.New(cfg.DeliveryReportStatusMapping, cfg.CompiledRegex(), log)
	deliverProcessor := deliver.New(codecTable, store, log)
	submitProcessor := submit.New(cfg.SubmitConfig(), exporter, log)

	return &Gateway{
		Codec:     codecTable,
		DLR:       dlrProcessor,
		Deliver:   deliverProcessor,
		Submit:    submitProcessor,
		Directory: directory,
		Metrics:   exporter,
		Log:       log,
	}
}

// Authenticate checks system_id/password against the bind-credential
// directory. When no directory is configured (e.g. tests, or a deployment
// that authenticates upstream of this core) every bind is accepted.
func (g *Gateway) Authenticate(systemID, password string) bool {
	if g.Directory == nil {
		return true
	}
	return g.Directory.Authenticate(systemID, password)
}

// HandleInboundPDU runs the USSD -> multipart -> plain classifier chain in
// that order, dispatching to OnInbound on the first classifier that handles
// the PDU.
func (g *Gateway) HandleInboundPDU(ctx context.Context, d *pdu.PDU) error {
	dispatch := g.dispatchInbound("sms")

	if g.Deliver.ClassifyUSSD(d, g.dispatchInbound("ussd")) {
		return nil
	}

	handled, err := g.Deliver.ClassifyMultipart(ctx, d, g.dispatchInbound("multipart"))
	if err != nil {
		return fmt.Errorf("gateway: multipart classification: %w", err)
	}
	if handled {
		return nil
	}

	g.Deliver.ClassifyPlain(d, dispatch)
	return nil
}

func (g *Gateway) dispatchInbound(kind string) deliver.Callback {
	return func(msg deliver.InboundMessage) {
		if g.Metrics != nil {
			g.Metrics.IncPDUClassified(kind)
			if kind == "multipart" {
				g.Metrics.IncMultipartComplete()
			}
		}
		if g.OnInbound != nil {
			g.OnInbound(msg)
		}
	}
}

// HandleDeliveryReportPDU attempts PDU-based delivery-report interpretation.
func (g *Gateway) HandleDeliveryReportPDU(d *pdu.PDU) bool {
	handled := g.DLR.HandlePDU(d, g.dispatchDeliveryReport("pdu"))
	return handled
}

// HandleDeliveryReportText attempts regex-based delivery-report interpretation.
func (g *Gateway) HandleDeliveryReportText(content string) bool {
	return g.DLR.HandleText(content, g.dispatchDeliveryReport("text"))
}

func (g *Gateway) dispatchDeliveryReport(channel string) dlr.Callback {
	return func(receiptedMessageID string, status dlr.Status) {
		if g.Metrics != nil {
			g.Metrics.IncDeliveryReport(channel)
		}
		if g.OnDeliveryReport != nil {
			g.OnDeliveryReport(receiptedMessageID, status)
		}
	}
}
