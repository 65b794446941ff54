package pix

import "fmt"

// Checksum computes the CRC-16/CCITT-FALSE of payload and returns it as four
// uppercase hex digits, the form appended after the "6304" marker of a BR Code.
func Checksum(payload string) string {
	crc := uint16(0xFFFF)
	for i := 0; i < len(payload); i++ {
		crc ^= uint16(payload[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
