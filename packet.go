package ateccx08

import (
	"encoding/binary"
	"fmt"
)

// Word address values. The first byte of every I²C transaction selects how
// the device interprets the rest of it.
const (
	wordAddressReset   = 0x00
	wordAddressSleep   = 0x01
	wordAddressIdle    = 0x02
	wordAddressCommand = 0x03
)

const (
	// cmdSizeMin is the size of a command without payload.
	//
	// It covers count, opcode, param1, param2 and crc.
	cmdSizeMin = 7
	cmdSizeMax = 4*36 + 7

	// respSizeMin is the size of a status-only response.
	respSizeMin = 4
)

const (
	// blockSize is the size of a block access
	blockSize = 32
	// wordSize is the size of a word access
	wordSize = 4
)

// packet represents a single security command.
type packet struct {
	opcode uint8
	param1 uint8
	param2 uint16
	data   []byte
}

func newPacket(opcode uint8, param1 uint8, param2 uint16, data []byte) (*packet, error) {
	if cmdSizeMin+len(data) > cmdSizeMax {
		return nil, fmt.Errorf("ateccx08: command payload of %d bytes exceeds maximum: %w",
			len(data), ErrInvalidParam)
	}
	return &packet{
		opcode: opcode,
		param1: param1,
		param2: param2,
		data:   data,
	}, nil
}

// count returns the value of the count field: every byte of the frame after
// the word address, the crc included.
func (p *packet) count() uint8 {
	return cmdSizeMin + uint8(len(p.data))
}

// packetEncoder frames packets for the wire.
//
// The on-wire layout is the command word address, the count, the opcode,
// param1, param2 in little-endian order, the payload and the crc. The crc
// covers everything from the count up to the end of the payload and is
// appended least significant byte first.
type packetEncoder struct {
}

func (e *packetEncoder) Encode(p *packet) ([]byte, error) {
	count := p.count()
	b := make([]byte, 0, int(count)+1)
	b = append(b, wordAddressCommand)
	b = append(b, count)
	b = append(b, p.opcode)
	b = append(b, p.param1)
	b = binary.LittleEndian.AppendUint16(b, p.param2)
	b = append(b, p.data...)
	return binary.LittleEndian.AppendUint16(b, CRC16(b[1:])), nil
}
