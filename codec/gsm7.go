package codec

import (
	"errors"
	"fmt"
)

// gsm7ReverseMap maps GSM 03.38 default-alphabet codes (0x00-0x7F) to runes.
var gsm7ReverseMap = map[byte]rune{
	0x00: '@', 0x01: '£', 0x02: '$', 0x03: '¥', 0x04: 'è', 0x05: 'é', 0x06: 'ù',
	0x07: 'ì', 0x08: 'ò', 0x09: 'Ç', 0x0A: '\n', 0x0B: 'Ø', 0x0C: 'ø', 0x0D: '\r',
	0x0E: 'Å', 0x0F: 'å', 0x10: 'Δ', 0x11: '_', 0x12: 'Φ', 0x13: 'Γ', 0x14: 'Λ',
	0x15: 'Ω', 0x16: 'Π', 0x17: 'Ψ', 0x18: 'Σ', 0x19: 'Θ', 0x1A: 'Ξ',
	0x1C: 'Æ', 0x1D: 'æ', 0x1E: 'ß', 0x1F: 'É', 0x20: ' ', 0x21: '!', 0x22: '"',
	0x23: '#', 0x24: '$', 0x25: '%', 0x26: '&', 0x27: '\'', 0x28: '(', 0x29: ')',
	0x2A: '*', 0x2B: '+', 0x2C: ',', 0x2D: '-', 0x2E: '.', 0x2F: '/', 0x30: '0',
	0x31: '1', 0x32: '2', 0x33: '3', 0x34: '4', 0x35: '5', 0x36: '6', 0x37: '7',
	0x38: '8', 0x39: '9', 0x3A: ':', 0x3B: ';', 0x3C: '<', 0x3D: '=', 0x3E: '>',
	0x3F: '?', 0x40: '¡', 0x41: 'A', 0x42: 'B', 0x43: 'C', 0x44: 'D', 0x45: 'E',
	0x46: 'F', 0x47: 'G', 0x48: 'H', 0x49: 'I', 0x4A: 'J', 0x4B: 'K', 0x4C: 'L',
	0x4D: 'M', 0x4E: 'N', 0x4F: 'O', 0x50: 'P', 0x51: 'Q', 0x52: 'R', 0x53: 'S',
	0x54: 'T', 0x55: 'U', 0x56: 'V', 0x57: 'W', 0x58: 'X', 0x59: 'Y', 0x5A: 'Z',
	0x5B: 'Ä', 0x5C: 'Ö', 0x5D: 'Ñ', 0x5E: 'Ü', 0x5F: '§', 0x60: '¿', 0x61: 'a',
	0x62: 'b', 0x63: 'c', 0x64: 'd', 0x65: 'e', 0x66: 'f', 0x67: 'g', 0x68: 'h',
	0x69: 'i', 0x6A: 'j', 0x6B: 'k', 0x6C: 'l', 0x6D: 'm', 0x6E: 'n', 0x6F: 'o',
	0x70: 'p', 0x71: 'q', 0x72: 'r', 0x73: 's', 0x74: 't', 0x75: 'u', 0x76: 'v',
	0x77: 'w', 0x78: 'x', 0x79: 'y', 0x7A: 'z', 0x7B: 'ä', 0x7C: 'ö', 0x7D: 'ñ',
	0x7E: 'ü', 0x7F: 'à',
}

// gsm7ExtReverseMap maps the extension-table codes that follow an 0x1B escape.
var gsm7ExtReverseMap = map[byte]rune{
	0x0A: '\f', 0x14: '^', 0x28: '{', 0x29: '}', 0x2F: '\\',
	0x3C: '[', 0x3D: '~', 0x3E: ']', 0x40: '|', 0x65: '€',
}

var (
	gsm7ForwardMap    map[rune]byte
	gsm7ExtForwardMap map[rune]byte
)

func init() {
	gsm7ForwardMap = make(map[rune]byte, len(gsm7ReverseMap))
	for b, r := range gsm7ReverseMap {
		gsm7ForwardMap[r] = b
	}
	gsm7ExtForwardMap = make(map[rune]byte, len(gsm7ExtReverseMap))
	for b, r := range gsm7ExtReverseMap {
		gsm7ExtForwardMap[r] = b
	}
}

// decodeUnpackedGSM7 decodes a slice of unpacked septets (one per byte) into
// a string, following escape sequences into the extension table.
func decodeUnpackedGSM7(input []byte) (string, error) {
	var result []rune
	for i := 0; i < len(input); i++ {
		b := input[i]
		if b == 0x1B {
			if i+1 >= len(input) {
				return "", errors.New("gsm7: escape at end of input")
			}
			i++
			extByte := input[i]
			r, ok := gsm7ExtReverseMap[extByte]
			if !ok {
				return "", fmt.Errorf("gsm7: invalid extension code 0x%X", extByte)
			}
			result = append(result, r)
			continue
		}
		r, ok := gsm7ReverseMap[b]
		if !ok {
			return "", fmt.Errorf("gsm7: invalid byte 0x%X", b)
		}
		result = append(result, r)
	}
	return string(result), nil
}

// unpackSeptets unpacks a GSM 03.38 packed-septet byte slice into one byte
// per septet (top bit always clear).
func unpackSeptets(packed []byte) []byte {
	var septets []byte
	var carry uint8
	var carryBits uint

	for _, b := range packed {
		septet := (b << carryBits) | carry
		septets = append(septets, septet&0x7F)
		carry = b >> (7 - carryBits)
		carryBits++
		if carryBits == 7 {
			septets = append(septets, carry&0x7F)
			carry = 0
			carryBits = 0
		}
	}
	return septets
}

// decodePackedGSM7 decodes GSM 03.38 packed-septet bytes into a string.
func decodePackedGSM7(input []byte) (string, error) {
	return decodeUnpackedGSM7(unpackSeptets(input))
}

// packSeptets packs unpacked septets (one per byte, top bit clear) into the
// GSM 03.38 7-in-8 wire format.
func packSeptets(septets []byte) []byte {
	var packed []byte
	var carry byte
	var carryBits uint

	for _, s := range septets {
		if carryBits == 0 {
			carry = s
			carryBits = 7
			continue
		}
		packed = append(packed, carry|(s<<carryBits))
		carry = s >> (8 - carryBits)
		carryBits--
	}
	if carryBits > 0 {
		packed = append(packed, carry)
	}
	return packed
}

// encodePackedGSM7 encodes text into packed GSM 03.38 septets. Characters
// outside the default and extension tables are replaced with '?'.
func encodePackedGSM7(text string) []byte {
	var septets []byte
	for _, r := range text {
		if b, ok := gsm7ForwardMap[r]; ok {
			septets = append(septets, b)
			continue
		}
		if b, ok := gsm7ExtForwardMap[r]; ok {
			septets = append(septets, 0x1B, b)
			continue
		}
		septets = append(septets, gsm7ForwardMap['?'])
	}
	return packSeptets(septets)
}
