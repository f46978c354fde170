package ateccx08

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// halKit speaks the Kit protocol to a dev kit bridging USB to the device.
//
// Kit commands are newline-terminated ASCII frames; payloads travel as
// upper-case hex. The kit firmware performs the actual power-state
// transitions on its side of the bridge.
type halKit struct {
	phy HAL
	buf []byte
	cfg IfaceConfig
}

var errNoKitDevice = errors.New("ateccx08: no kit device found")

func newHALKit(ctx context.Context, phy HAL, cfg IfaceConfig) (*halKit, error) {
	buf := make([]byte, cfg.HID.PacketSize)
	phy = &halDebug{"kit", getLogger(cfg), phy}
	kit := &halKit{phy, buf, cfg}
	return kit, kit.init(ctx)
}

func kitIDFromDeviceType(deviceType DeviceType) string {
	switch deviceType {
	case DeviceATECC508:
		return "ECC508"
	case DeviceATECC608:
		return "ECC608"
	default:
		return "unknown"
	}
}

func deviceTypeFromKitID(id string) (DeviceType, error) {
	switch {
	case strings.HasPrefix(id, "ECC5"):
		return DeviceATECC508, nil
	case strings.HasPrefix(id, "ECC6"):
		return DeviceATECC608, nil
	default:
		return DeviceType(0), errors.New("ateccx08: unknown kit device type")
	}
}

func kitTypeFromKitIface(iface string) (KitType, error) {
	switch iface {
	case "TWI":
		return KitTypeI2C, nil
	case "SWI":
		return KitTypeSWI, nil
	case "SPI":
		return KitTypeSPI, nil
	default:
		return KitType(0), errors.New("ateccx08: unknown kit interface")
	}
}

const (
	kitMaxScanCount = 8

	kitMsgSize    = 32
	kitRxWrapSize = kitMsgSize + 6
)

// init scans the kit for the element matching the configuration and
// selects it for all following transactions.
func (h *halKit) init(ctx context.Context) error {
	var (
		devIndex    int
		kitType     KitType
		devIdentity uint8
	)
	switch h.cfg.IfaceType {
	case IfaceHID:
		devIndex = h.cfg.HID.DevIndex
		kitType = h.cfg.HID.KitType
		devIdentity = h.cfg.HID.DevIdentity
	default:
		kitType = KitTypeAuto
	}

	for i := 0; i < kitMaxScanCount; i++ {
		dev, err := h.getKitDeviceByIndex(i)
		if errors.Is(err, errNoKitDevice) {
			continue
		} else if err != nil {
			return err
		}

		if devIndex != 0 && devIndex != i {
			continue
		}
		if devIdentity != 0 && devIdentity != dev.Address {
			continue
		}
		if h.cfg.DeviceType != dev.DeviceType {
			continue
		}
		if kitType != KitTypeAuto && kitType != dev.KitType {
			continue
		}

		return h.selectDevice(dev.Address)
	}

	return errors.New("ateccx08: failed to discover kit device")
}

// Wake accepts both statuses the kit may report: 0x11 right after the
// pulse and 0x00 when the device was already awake.
func (h *halKit) Wake() error {
	var data [10]byte
	_, err := h.executeResponse(h.kitCommand("w()"), data[:])

	var se *StatusError
	if errors.As(err, &se) && se.Code == statusAfterWake {
		return nil
	}
	return err
}

func (h *halKit) Idle() error {
	return h.execute(h.kitCommand("i()"))
}

func (h *halKit) Sleep() error {
	return h.execute(h.kitCommand("s()"))
}

func (h *halKit) Write(data []byte) (int, error) {
	payload := strings.ToUpper(hex.EncodeToString(data))
	return h.phySend(h.kitCommand("t(" + payload + ")"))
}

func (h *halKit) Read(dst []byte) (int, error) {
	msg := hex.EncodedLen(len(dst)) + kitRxWrapSize
	pkt := h.cfg.HID.PacketSize
	buf := make([]byte, (msg/pkt+1)*pkt)

	n, err := h.phyRecv(buf)
	if err != nil {
		return 0, err
	}

	return kitParseRsp(buf[:n], dst)
}

// kitCommand builds a kit frame addressed at the configured device class.
func (h *halKit) kitCommand(body string) []byte {
	kitID := kitIDFromDeviceType(h.cfg.DeviceType)
	return []byte(fmt.Sprintf("%c:%s\n", kitID[0], body))
}

func (h *halKit) execute(command []byte) error {
	var data [10]byte
	_, err := h.executeResponse(command, data[:])
	return err
}

func (h *halKit) executeResponse(command []byte, data []byte) (int, error) {
	if _, err := h.phySend(command); err != nil {
		return 0, err
	}

	n, err := h.phyRecv(h.buf)
	if err != nil {
		return 0, err
	}
	return kitParseRsp(h.buf[:n], data)
}

func (h *halKit) getKitDeviceByIndex(index int) (kitDevice, error) {
	command := fmt.Sprintf("board:device(%02X)\n", index)
	if _, err := h.phySend([]byte(command)); err != nil {
		return kitDevice{}, err
	}

	n, err := h.phyRecv(h.buf)
	if err != nil {
		return kitDevice{}, err
	}
	return parseKitDevice(h.buf[:n])
}

func (h *halKit) selectDevice(address uint8) error {
	kitID := kitIDFromDeviceType(h.cfg.DeviceType)
	command := fmt.Sprintf("%c:physical:select(%02X)\n", kitID[0], address)
	return h.execute([]byte(command))
}

type kitDevice struct {
	DeviceType DeviceType
	KitType    KitType
	Address    uint8
}

func parseKitDevice(buf []byte) (kitDevice, error) {
	var (
		kitID    string
		kitIface string
		index    uint8
		address  uint8
	)
	if bytes.HasPrefix(buf, []byte("no_device")) {
		return kitDevice{}, errNoKitDevice
	}
	_, err := fmt.Sscanf(
		string(buf), "%s %s %02X(%02X)", &kitID, &kitIface, &index, &address,
	)
	if err != nil {
		return kitDevice{}, fmt.Errorf("ateccx08: invalid kit device: %w", err)
	}

	dt, err := deviceTypeFromKitID(kitID)
	if err != nil {
		return kitDevice{}, err
	}
	kt, err := kitTypeFromKitIface(kitIface)
	if err != nil {
		return kitDevice{}, err
	}
	return kitDevice{dt, kt, address}, nil
}

func (h *halKit) phySend(txData []byte) (int, error) {
	left := len(txData)
	sent := 0
	for left > 0 {
		n := copy(h.buf, txData[sent:])
		for ; n < cap(h.buf); n++ {
			h.buf[n] = 0
		}

		n, err := h.phy.Write(h.buf)
		if err != nil {
			return sent, err
		}

		left -= n
		sent += n
	}

	return sent, nil
}

func (h *halKit) phyRecv(data []byte) (int, error) {
	left := len(data)
	read := 0
	for left > 0 {
		n, err := h.phy.Read(h.buf)
		if err != nil {
			return read, err
		}

		// end early on response end
		if index := bytes.IndexByte(h.buf, '\n'); index != -1 {
			copy(data[read:], h.buf[:index]) // ignore return for overflow check below
			read += index
			break
		}

		copy(data[read:], h.buf) // ignore return for overflow check below
		read += n
		left -= n
	}

	// error out to make sure we never lose any data
	if read > cap(data) {
		return read, errors.New("ateccx08: kit buffer overflow")
	}

	return read, nil
}

// kitParseRsp splits a kit reply of the form SS(PAYLOAD) into the decoded
// status and payload bytes.
func kitParseRsp(reply []byte, dst []byte) (int, error) {
	if len(reply) < 3 {
		return 0, errors.New("ateccx08: short kit response")
	}

	var status [1]byte
	if _, err := hex.Decode(status[:], reply[0:2]); err != nil {
		return 0, err
	} else if err := validateStatus(status[0]); err != nil {
		return 0, err
	}

	index := bytes.IndexByte(reply[3:], ')')
	if index == -1 {
		return 0, errors.New("ateccx08: failed to find end of kit frame")
	}
	if hex.DecodedLen(index) > cap(dst) {
		return 0, errors.New("ateccx08: kit response exceeds receive buffer")
	}

	body := reply[3 : 3+index]
	return hex.Decode(dst, body)
}
