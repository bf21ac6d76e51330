// Package dlr interprets SMPP delivery reports, merging two independent
// channels - binary optional parameters and free-text receipts parsed by a
// configurable regular expression - into one status vocabulary.
package dlr

import (
	"regexp"

	"github.com/sirupsen/logrus"

	"smpp-relay-core/gwlog"
	"smpp-relay-core/pdu"
)

// Status is the canonical delivery outcome.
type Status string

const (
	Delivered Status = "delivered"
	Failed    Status = "failed"
	Pending   Status = "pending"
)

// messageStateTable maps the SMPP message_state integer (1-8) to its wire
// name. Anything outside 1-8 maps to UNKNOWN.
var messageStateTable = map[int]string{
	1: "ENROUTE",
	2: "DELIVERED",
	3: "EXPIRED",
	4: "DELETED",
	5: "UNDELIVERABLE",
	6: "ACCEPTED",
	7: "UNKNOWN",
	8: "REJECTED",
}

func messageStateName(state int) string {
	if name, ok := messageStateTable[state]; ok {
		return name
	}
	return "UNKNOWN"
}

// defaultStatusMapping is the baseline opaque-token -> canonical-status map.
var defaultStatusMapping = map[string]Status{
	string(Delivered): Delivered,
	string(Failed):     Failed,
	string(Pending):    Pending,

	"ENROUTE":       Pending,
	"DELIVERED":     Delivered,
	"EXPIRED":       Failed,
	"DELETED":       Failed,
	"UNDELIVERABLE": Failed,
	"REJECTED":      Failed,
	"ACCEPTED":      Delivered,
	"UNKNOWN":       Pending,

	"DELIVRD": Delivered,
	"REJECTD": Failed,

	"0": Delivered,
}

// Callback is emitted for a successfully interpreted delivery report.
type Callback func(receiptedMessageID string, status Status)

// Processor merges PDU-based and text-based delivery reports into canonical
// status callbacks. It holds no mutable state: the status mapping and regex
// are fixed at construction.
type Processor struct {
	statusMapping map[string]Status
	textRegex     *regexp.Regexp
	log           *gwlog.LogManager
}

// New builds a Processor. overrides extends/replaces the baseline status
// mapping; textRegex must expose the named capture groups id and stat, the
// two HandleText reads (DefaultRegexPattern also captures sub, dlvrd,
// submit_date, done_date, err and text), and should already have been
// validated at configuration-load time.
func New(overrides map[string]Status, textRegex *regexp.Regexp, log *gwlog.LogManager) *Processor {
	mapping := make(map[string]Status, len(defaultStatusMapping)+len(overrides))
	for k, v := range defaultStatusMapping {
		mapping[k] = v
	}
	for k, v := range overrides {
		mapping[k] = v
	}
	return &Processor{statusMapping: mapping, textRegex: textRegex, log: log}
}

func (p *Processor) resolve(token string) Status {
	if status, ok := p.statusMapping[token]; ok {
		return status
	}
	return Pending
}

// HandlePDU reads receipted_message_id and message_state from the PDU's
// optional parameters. If either is absent it returns false ("not handled").
// Otherwise it resolves the canonical status and invokes emit, returning true.
func (p *Processor) HandlePDU(d *pdu.PDU, emit Callback) bool {
	id, idOK := d.OptString("receipted_message_id")
	state, stateOK := d.OptInt("message_state")
	if !idOK || !stateOK {
		return false
	}

	status := p.resolve(messageStateName(state))
	if p.log != nil {
		p.log.SendLog(p.log.BuildLog("dlr", "DeliveryReportPDU", logrus.InfoLevel, map[string]interface{}{
			"receipted_message_id": id,
			"message_state":        state,
		}, id, status))
	}
	emit(id, status)
	return true
}

// HandleText matches the configured regular expression against content. If
// it doesn't match, returns false. Otherwise emits (id, canonical status for
// stat) and returns true. An unrecognized stat degrades silently to pending.
func (p *Processor) HandleText(content string, emit Callback) bool {
	if p.textRegex == nil {
		return false
	}
	match := p.textRegex.FindStringSubmatch(content)
	if match == nil {
		return false
	}

	names := p.textRegex.SubexpNames()
	groups := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" || i >= len(match) {
			continue
		}
		groups[name] = match[i]
	}

	id := groups["id"]
	status := p.resolve(groups["stat"])
	if p.log != nil {
		p.log.SendLog(p.log.BuildLog("dlr", "DeliveryReportText", logrus.InfoLevel, map[string]interface{}{
			"id":   id,
			"stat": groups["stat"],
		}, id, status))
	}
	emit(id, status)
	return true
}

// DefaultRegexPattern is the baseline delivery-receipt pattern:
// "id:XYZ sub:001 dlvrd:001 submit date:1401010000 done date:1401010005 stat:DELIVRD err:000 text:Hello"
const DefaultRegexPattern = `id:(?P<id>\S{1,65}) sub:(?P<sub>\S{1,3}) dlvrd:(?P<dlvrd>\S{1,3}) submit date:(?P<submit_date>\d*) done date:(?P<done_date>\d*) stat:(?P<stat>[A-Z]{7}) err:(?P<err>\S{1,3}) text:(?P<text>.{0,20})`
