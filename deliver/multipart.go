package deliver

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// part is the per-fragment record stored under a reassembly key, matching
// the external interface's JSON shape (part payloads are hex text so the
// store's transport may be text-only).
type part struct {
	PartMessage string `json:"part_message"`
	FromMSISDN  string `json:"from_msisdn"`
	ToMSISDN    string `json:"to_msisdn"`
}

// concatHeader is the reference/total/sequence triple extracted from either
// a SAR optional-parameter group or an in-band UDH, regardless of which wire
// mechanism carried it.
type concatHeader struct {
	reference int
	total     int
	sequence  int
}

// reassemblyKey derives the deterministic grouping key for a concatenated
// message from its header and source address.
func reassemblyKey(h concatHeader, sourceAddr string) string {
	return fmt.Sprintf("%d_%d_%s", h.reference, h.total, sourceAddr)
}

func storeKey(key string) string {
	return "multi_" + key
}

// loadBuffer reads and decodes the buffer for key, treating an absent or
// empty value as an empty buffer.
func loadBuffer(raw string, ok bool) (map[int]part, error) {
	buffer := make(map[int]part)
	if !ok || raw == "" {
		return buffer, nil
	}
	if err := json.Unmarshal([]byte(raw), &buffer); err != nil {
		return nil, fmt.Errorf("deliver: decode multipart buffer: %w", err)
	}
	return buffer, nil
}

func saveBuffer(buffer map[int]part) (string, error) {
	data, err := json.Marshal(buffer)
	if err != nil {
		return "", fmt.Errorf("deliver: encode multipart buffer: %w", err)
	}
	return string(data), nil
}

// isComplete reports whether all indices 1..total are present.
func isComplete(buffer map[int]part, total int) bool {
	for i := 1; i <= total; i++ {
		if _, ok := buffer[i]; !ok {
			return false
		}
	}
	return true
}

// concatenate joins parts 1..total in ascending index order, un-hexing each
// payload. Binary payloads survive the round trip verbatim because of the
// hex armor.
func concatenate(buffer map[int]part, total int) ([]byte, error) {
	indices := make([]int, 0, total)
	for i := 1; i <= total; i++ {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var out []byte
	for _, i := range indices {
		p, ok := buffer[i]
		if !ok {
			return nil, fmt.Errorf("deliver: missing part %d in complete buffer", i)
		}
		b, err := hex.DecodeString(p.PartMessage)
		if err != nil {
			return nil, fmt.Errorf("deliver: un-hex part %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}
