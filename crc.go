package ateccx08

// CRC16 calculates the checksum the device appends to every packet.
//
// The algorithm is the CryptoAuthentication variant of CRC-16: polynomial
// 0x8005, initial value 0, with the input bits of each byte tested least
// significant first against the top bit of the register. Refer to the Atmel
// CryptoAuth Data Zone CRC Calculation application note for details.
// https://ww1.microchip.com/downloads/en/Appnotes/Atmel-8936-CryptoAuth-Data-Zone-CRC-Calculation-ApplicationNote.pdf
//
// The value must match the device bit for bit. It is exported so callers
// that precompute zone digests for the Lock command can reuse it.
func CRC16(data []byte) uint16 {
	const polynom uint16 = 0x8005
	var crc uint16

	for _, b := range data {
		for shift := 0; shift < 8; shift++ {
			var dataBit byte
			if b&(1<<shift) != 0 {
				dataBit = 1
			}
			crcBit := byte(crc >> 15)
			crc = crc << 1
			if dataBit != crcBit {
				crc = crc ^ polynom
			}
		}
	}

	return crc
}
