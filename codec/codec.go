// Package codec maps SMPP data_coding values to character sets and decodes
// short-message bytes to UTF-8 text, degrading to the raw bytes whenever the
// coding is unmapped or the bytes aren't valid in the selected charset.
package codec

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	"smpp-relay-core/gwlog"
)

// Charset names recognized by Table, matching the baseline data_coding map.
const (
	ASCII     = "ascii"
	Latin1    = "latin1"
	ISO2022JP = "iso2022jp"
	ISO8859_5 = "iso8859-5"
	ISO8859_8 = "iso8859-8"
	UTF16BE   = "utf-16be"
	ShiftJIS  = "shift_jis"
	GSM0338   = "gsm0338"
)

// defaultDataCodingMap is the baseline integer -> charset-name mapping.
// Codes 0, 2, 4 and 11-15 are intentionally absent.
var defaultDataCodingMap = map[byte]string{
	1:  ASCII,
	3:  Latin1,
	5:  ISO2022JP,
	6:  ISO8859_5,
	7:  ISO8859_8,
	8:  UTF16BE,
	9:  ShiftJIS,
	10: ISO2022JP,
}

// Table is an immutable data_coding -> charset mapping, decoding bytes via
// the matching codec with safe pass-through fallback.
type Table struct {
	mapping map[byte]string
	log     *gwlog.LogManager
}

// NewTable builds a Table from the baseline mapping plus overrides. A nil
// logger is fine: logging becomes a no-op.
func NewTable(overrides map[byte]string, log *gwlog.LogManager) *Table {
	mapping := make(map[byte]string, len(defaultDataCodingMap)+len(overrides))
	for k, v := range defaultDataCodingMap {
		mapping[k] = v
	}
	for k, v := range overrides {
		mapping[k] = v
	}
	return &Table{mapping: mapping, log: log}
}

// Decode maps dataCoding to a charset and decodes b to UTF-8 text. It never
// fails outward: an unmapped coding or a decode error both return the input
// bytes unchanged, with the second return value reporting whether an actual
// charset decode happened.
func (t *Table) Decode(b []byte, dataCoding byte) ([]byte, bool) {
	if b == nil {
		t.warn("UnmappedDataCoding", map[string]interface{}{"data_coding": dataCoding}, int(dataCoding))
		return nil, false
	}

	charset, ok := t.mapping[dataCoding]
	if !ok {
		t.warn("UnmappedDataCoding", map[string]interface{}{"data_coding": dataCoding}, int(dataCoding))
		return b, false
	}

	decoded, err := decodeCharset(b, charset)
	if err != nil {
		t.logError("DecodeFailure", map[string]interface{}{"data_coding": dataCoding, "charset": charset}, len(b), charset, err)
		return b, false
	}
	return decoded, true
}

func (t *Table) warn(template string, fields map[string]interface{}, args ...interface{}) {
	if t.log == nil {
		return
	}
	t.log.SendLog(t.log.BuildLog("codec", template, logrus.WarnLevel, fields, args...))
}

func (t *Table) logError(template string, fields map[string]interface{}, args ...interface{}) {
	if t.log == nil {
		return
	}
	t.log.SendLog(t.log.BuildLog("codec", template, logrus.ErrorLevel, fields, args...))
}

func decodeCharset(b []byte, charset string) ([]byte, error) {
	if charset == GSM0338 {
		s, err := decodePackedGSM7(b)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}

	enc := encodingFor(charset)
	if enc == nil {
		return b, nil
	}
	return enc.NewDecoder().Bytes(b)
}

func encodingFor(charset string) encoding.Encoding {
	switch charset {
	case ASCII:
		return unicode.UTF8 // ASCII is a strict subset; UTF8 decoder passes it through
	case Latin1:
		return charmap.ISO8859_1
	case ISO2022JP:
		return japanese.ISO2022JP
	case ISO8859_5:
		return charmap.ISO8859_5
	case ISO8859_8:
		return charmap.ISO8859_8
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case ShiftJIS:
		return japanese.ShiftJIS
	default:
		return nil
	}
}

// Encode encodes UTF-8 text into the wire bytes for charset, used by the
// submit path on every send with the configured submit_encoding. GSM 03.38
// is the one alphabet handled locally; a charset with an x/text codec goes
// through x/text, and any other name (such as "utf-8") returns the text's
// bytes unchanged.
func Encode(text string, charset string) ([]byte, error) {
	if charset == GSM0338 {
		return encodePackedGSM7(text), nil
	}
	enc := encodingFor(charset)
	if enc == nil {
		return []byte(text), nil
	}
	return enc.NewEncoder().Bytes([]byte(text))
}
