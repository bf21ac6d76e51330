package deliver

// parseUDH extracts a concatenation header from a User Data Header embedded
// at the front of short_message (the in-band SMPP concatenation mechanism,
// as opposed to SAR's out-of-band optional parameters). It recognizes the
// standard 8-bit (IEI 0x00, length 3) and 16-bit (IEI 0x08, length 4)
// reference-number information elements. Returns the header, the payload
// bytes with the UDH stripped, and whether a recognized UDH was found.
func parseUDH(b []byte) (concatHeader, []byte, bool) {
	if len(b) < 1 {
		return concatHeader{}, b, false
	}
	udhl := int(b[0])
	if udhl == 0 || len(b) < udhl+1 {
		return concatHeader{}, b, false
	}
	udh := b[1 : 1+udhl]
	payload := b[1+udhl:]

	for i := 0; i+1 < len(udh); {
		iei := udh[i]
		length := int(udh[i+1])
		if i+2+length > len(udh) {
			break
		}
		elem := udh[i+2 : i+2+length]
		switch {
		case iei == 0x00 && length == 3:
			return concatHeader{
				reference: int(elem[0]),
				total:     int(elem[1]),
				sequence:  int(elem[2]),
			}, payload, true
		case iei == 0x08 && length == 4:
			return concatHeader{
				reference: int(elem[0])<<8 | int(elem[1]),
				total:     int(elem[2]),
				sequence:  int(elem[3]),
			}, payload, true
		}
		i += 2 + length
	}
	return concatHeader{}, b, false
}
