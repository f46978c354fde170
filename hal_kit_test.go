package ateccx08

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKitPhy fakes the HID transport under the kit protocol: fixed-size
// packet writes, newline-terminated ASCII replies.
type fakeKitPhy struct {
	sent      [][]byte
	responses []string
}

func (p *fakeKitPhy) Wake() error  { return nil }
func (p *fakeKitPhy) Idle() error  { return nil }
func (p *fakeKitPhy) Sleep() error { return nil }

func (p *fakeKitPhy) Write(b []byte) (int, error) {
	p.sent = append(p.sent, append([]byte(nil), b...))
	return len(b), nil
}

func (p *fakeKitPhy) Read(b []byte) (int, error) {
	if len(p.responses) == 0 {
		return 0, errBusNAK
	}
	r := p.responses[0]
	p.responses = p.responses[1:]
	n := copy(b, r+"\n")
	return n, nil
}

// sentFrame returns transmission i with the packet padding stripped.
func (p *fakeKitPhy) sentFrame(i int) string {
	return string(bytes.TrimRight(p.sent[i], "\x00"))
}

func newTestKit(phy *fakeKitPhy) *halKit {
	cfg := ConfigATECCX08AKitHIDDefault()
	return &halKit{phy, make([]byte, cfg.HID.PacketSize), cfg}
}

func TestKitInit(t *testing.T) {
	phy := &fakeKitPhy{responses: []string{
		"no_device",
		"ECC608B TWI 01(6C)",
		"00()",
	}}

	kit, err := newHALKit(context.Background(), phy, ConfigATECCX08AKitHIDDefault())
	require.NoError(t, err)
	require.NotNil(t, kit)

	// Scan until a matching element answers, then select it by address.
	assert.Equal(t, "board:device(00)\n", phy.sentFrame(0))
	assert.Equal(t, "board:device(01)\n", phy.sentFrame(1))
	assert.Equal(t, "E:physical:select(6C)\n", phy.sentFrame(2))
}

func TestKitInitNoDevice(t *testing.T) {
	phy := &fakeKitPhy{responses: []string{
		"no_device", "no_device", "no_device", "no_device",
		"no_device", "no_device", "no_device", "no_device",
	}}

	_, err := newHALKit(context.Background(), phy, ConfigATECCX08AKitHIDDefault())
	assert.Error(t, err)
	assert.Len(t, phy.sent, kitMaxScanCount)
}

func TestKitInitSkipsWrongDeviceType(t *testing.T) {
	phy := &fakeKitPhy{responses: []string{
		"ECC508A TWI 00(6A)",
		"ECC608A TWI 01(6C)",
		"00()",
	}}

	_, err := newHALKit(context.Background(), phy, ConfigATECCX08AKitHIDDefault())
	require.NoError(t, err)
	assert.Equal(t, "E:physical:select(6C)\n", phy.sentFrame(2))
}

func TestKitWake(t *testing.T) {
	// 0x11 is how the device reports a successful wake; the kit passes it
	// through and it must not surface as an error.
	phy := &fakeKitPhy{responses: []string{"11()"}}
	kit := newTestKit(phy)

	require.NoError(t, kit.Wake())
	assert.Equal(t, "E:w()\n", phy.sentFrame(0))
}

func TestKitWakeAlreadyAwake(t *testing.T) {
	phy := &fakeKitPhy{responses: []string{"00()"}}
	kit := newTestKit(phy)

	require.NoError(t, kit.Wake())
}

func TestKitWakeFailure(t *testing.T) {
	phy := &fakeKitPhy{responses: []string{"0F()"}}
	kit := newTestKit(phy)

	var se *StatusError
	require.ErrorAs(t, kit.Wake(), &se)
	assert.Equal(t, uint8(statusExecutionError), se.Code)
}

func TestKitIdleSleep(t *testing.T) {
	phy := &fakeKitPhy{responses: []string{"00()", "00()"}}
	kit := newTestKit(phy)

	require.NoError(t, kit.Idle())
	require.NoError(t, kit.Sleep())
	assert.Equal(t, "E:i()\n", phy.sentFrame(0))
	assert.Equal(t, "E:s()\n", phy.sentFrame(1))
}

func TestKitWrite(t *testing.T) {
	phy := &fakeKitPhy{}
	kit := newTestKit(phy)

	_, err := kit.Write([]byte{0x03, 0x07, 0x30, 0x00, 0x00, 0x00, 0x03, 0x5d})
	require.NoError(t, err)

	// Command frames travel as upper-case hex inside a transfer command.
	assert.Equal(t, "E:t(030730000000035D)\n", phy.sentFrame(0))
	assert.Len(t, phy.sent[0], 64)
}

func TestKitRead(t *testing.T) {
	resp := deviceResponse(revisionATECC508Resp)
	phy := &fakeKitPhy{responses: []string{"00(" + hexUpper(resp) + ")"}}
	kit := newTestKit(phy)

	dst := make([]byte, len(resp))
	n, err := kit.Read(dst)
	require.NoError(t, err)
	assert.Equal(t, resp, dst[:n])
}

func hexUpper(b []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0x0f])
	}
	return string(out)
}

func TestParseKitDevice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  kitDevice
		err   bool
	}{
		{
			name:  "ecc608 twi",
			input: "ECC608B TWI 00(6C)",
			want:  kitDevice{DeviceATECC608, KitTypeI2C, 0x6c},
		},
		{
			name:  "ecc508 swi",
			input: "ECC508A SWI 01(02)",
			want:  kitDevice{DeviceATECC508, KitTypeSWI, 0x02},
		},
		{
			name:  "ecc608 spi",
			input: "ECC608A SPI 00(01)",
			want:  kitDevice{DeviceATECC608, KitTypeSPI, 0x01},
		},
		{name: "unknown device", input: "SHA204A TWI 00(64)", err: true},
		{name: "unknown interface", input: "ECC608A UART 00(64)", err: true},
		{name: "garbage", input: "####", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := parseKitDevice([]byte(tt.input))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dev)
		})
	}
}

func TestParseKitDeviceNoDevice(t *testing.T) {
	_, err := parseKitDevice([]byte("no_device"))
	assert.ErrorIs(t, err, errNoKitDevice)
}

func TestKitParseRsp(t *testing.T) {
	dst := make([]byte, 4)
	n, err := kitParseRsp([]byte("00(DEADBEEF)"), dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, dst[:n])
}

func TestKitParseRspStatus(t *testing.T) {
	var dst [4]byte
	_, err := kitParseRsp([]byte("0F()"), dst[:])

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint8(statusExecutionError), se.Code)
}

func TestKitParseRspMalformed(t *testing.T) {
	var dst [8]byte
	for _, input := range []string{"", "0", "00(AABB", "zz(00)"} {
		_, err := kitParseRsp([]byte(input), dst[:])
		assert.Error(t, err, "input %q", input)
	}
}

func TestKitParseRspOverflow(t *testing.T) {
	var dst [1]byte
	_, err := kitParseRsp([]byte("00(AABBCC)"), dst[:])
	assert.Error(t, err)
}
