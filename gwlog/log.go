// Package gwlog is the structured-logging wrapper shared by every package in
// this gateway. It keeps the template/field/level shape the rest of the
// codebase is built around, backed by logrus.
package gwlog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingFormat is a single structured log entry: a message built from a
// named template, a type tag for grouping, a level, and free-form fields.
type LoggingFormat struct {
	Message        string                 `json:"message,omitempty"`
	Error          error                  `json:"error,omitempty"`
	Type           string                 `json:"type,omitempty"`
	Level          logrus.Level           `json:"level,omitempty"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
	Timestamp      time.Time              `json:"timestamp,omitempty"`
}

// LogManager owns the named message templates and prints entries via logrus.
type LogManager struct {
	Templates map[string]string
}

// NewLogManager returns a LogManager preloaded with this gateway's templates.
func NewLogManager() *LogManager {
	lm := &LogManager{Templates: make(map[string]string)}
	lm.loadTemplates()
	return lm
}

func (lm *LogManager) loadTemplates() {
	templates := map[string]string{
		"GenericError":         "An error occurred: %s",
		"UnmappedDataCoding":   "No charset mapping for data_coding %d, passing raw bytes",
		"DecodeFailure":        "Failed to decode %d bytes as %s: %s",
		"InvalidUSSDOp":        "Unrecognized ussd_service_op %q, treating as close",
		"StoreError":           "Store operation failed: %s",
		"ConfigInvalid":        "Configuration invalid: %s",
		"MultipartIncomplete":  "Multipart key %s: %d/%d parts received",
		"MultipartComplete":    "Multipart key %s: reassembly complete",
		"DeliveryReportPDU":    "Delivery report %s -> %s (pdu)",
		"DeliveryReportText":   "Delivery report %s -> %s (regex)",
		"SubmitStrategy":       "Submitting message %s via %s",
		"BindAuthFailed":       "Bind authentication failed for system_id %s",
		"BindAuthSucceeded":    "Bind authentication succeeded for system_id %s",
	}
	for name, template := range templates {
		lm.AddTemplate(name, template)
	}
}

// AddTemplate registers (or replaces) a named template.
func (lm *LogManager) AddTemplate(name, template string) {
	lm.Templates[strings.ToUpper(name)] = template
}

// BuildLog formats a named template with args into a ready-to-send entry.
func (lm *LogManager) BuildLog(logType, templateName string, level logrus.Level, fields map[string]interface{}, args ...interface{}) *LoggingFormat {
	return &LoggingFormat{
		Message:        lm.formatTemplate(templateName, args...),
		Type:           strings.ToUpper(logType),
		Level:          level,
		AdditionalData: fields,
		Timestamp:      time.Now(),
	}
}

func (lm *LogManager) formatTemplate(templateName string, args ...interface{}) string {
	template, ok := lm.Templates[strings.ToUpper(templateName)]
	if !ok {
		return fmt.Sprintf("template '%s' not found", templateName)
	}
	return fmt.Sprintf(template, args...)
}

// AddField attaches an additional field to an already-built log entry.
func (lf *LoggingFormat) AddField(key string, value interface{}) {
	if lf.AdditionalData == nil {
		lf.AdditionalData = make(map[string]interface{})
	}
	lf.AdditionalData[key] = value
}

// SendLog prints the entry through logrus at its configured level.
func (lm *LogManager) SendLog(lf *LoggingFormat) {
	lf.Print()
}

// Print emits the entry to logrus with its fields attached.
func (lf *LoggingFormat) Print() {
	entry := logrus.WithFields(logrus.Fields{
		"type": lf.Type,
		"time": lf.Timestamp.Format(time.RFC3339),
	})
	for key, value := range lf.AdditionalData {
		entry = entry.WithField(key, value)
	}
	if lf.Error != nil {
		entry = entry.WithField("error", lf.Error.Error())
	}

	switch lf.Level {
	case logrus.ErrorLevel:
		entry.Error(lf.Message)
	case logrus.WarnLevel:
		entry.Warn(lf.Message)
	case logrus.DebugLevel:
		entry.Debug(lf.Message)
	default:
		entry.Info(lf.Message)
	}
}

// String serializes the entry as JSON, for callers that ship logs elsewhere.
func (lf *LoggingFormat) String() string {
	data, err := json.Marshal(lf)
	if err != nil {
		return fmt.Sprintf("error serializing log: %v", err)
	}
	return string(data)
}
