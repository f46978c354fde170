package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/quarklabs/go-ateccx08"
	"github.com/quarklabs/go-ateccx08/pkg/ateccx08conf"
)

const (
	inputDefault = "default"
	inputHex     = "hex"
	inputDevice  = "device"

	outputGo     = "go"
	outputHex    = "hex"
	outputJSON   = "json"
	outputDevice = "device"
)

var allOutputs = []string{outputGo, outputHex, outputJSON, outputDevice}

type confConfig struct {
	rootConfig *rootConfig
	in         io.Reader
	out        io.Writer
	err        io.Writer
	input      string
	output     string
	dry        bool
	genKeys    bool
	newAddr    string
}

func (c *confConfig) Exec(ctx context.Context, _ []string) error {
	if c.rootConfig.verbose {
		fmt.Fprintf(c.err, "config\n")
	}

	// Only connect to the device when needed. This allows converting
	// configurations between formats offline.
	var (
		dev  *ateccx08.Dev
		info *deviceInfo
	)
	if c.input == inputDevice || c.output == outputDevice {
		d, bus, err := newDevice(ctx, c.rootConfig)
		if err != nil {
			return err
		}
		dev = d
		defer bus.Close()

		if di, err := getDeviceInfo(ctx, dev); err != nil {
			return err
		} else {
			info = di
		}
	}

	provisionBytes, err := createProvisionConfig(c.input, c.in, info)
	if err != nil {
		return err
	}

	if c.newAddr != "" {
		addr, err := getI2CAddress(c.newAddr, c.rootConfig.trustPlatformFormat)
		if err != nil {
			return err
		}
		provisionBytes[ateccx08conf.I2CAddressOffset] = byte(addr << 1)
	}

	err = useProvisionConfig(ctx, c.dry, c.output, c.out, info, provisionBytes, dev)
	if err != nil {
		return err
	}

	if c.genKeys && info != nil && info.IsDataZoneLocked {
		fmt.Fprintln(c.out, "Generating New Keys")
		if err := keyGen(ctx, c.out, c.dry, dev); err != nil {
			return err
		}
	}

	return nil
}

func useProvisionConfig(
	ctx context.Context, dry bool, output string, w io.Writer,
	di *deviceInfo, provisionBytes []byte, d *ateccx08.Dev,
) error {
	switch output {
	case outputHex:
		fmt.Fprintln(w, prettyHexIndent(provisionBytes[ateccx08conf.WritableOffset:], "", " "))
		return nil
	case outputGo:
		conf := provisionBytes[ateccx08conf.WritableOffset:]

		var src strings.Builder
		src.WriteString("[...]byte{")
		for i, b := range conf {
			if (i % 8) == 0 {
				src.WriteString("\n ")
			}
			fmt.Fprintf(&src, " 0x%02x,", b)
		}
		src.WriteString("\n}")
		fmt.Fprintln(w, src.String())
		return nil
	case outputJSON:
		var conf ateccx08conf.Config
		if err := ateccx08conf.Unmarshal(provisionBytes, &conf); err != nil {
			return err
		}
		return writeJSON(w, &conf)
	case outputDevice:
		fmt.Fprintln(w, "Serial number:")
		fmt.Fprintln(w, prettyHex(di.SerialNumber))

		fmt.Fprintln(w, "Current I2C Address:")
		fmt.Fprintln(w, prettyHex([]byte{di.ConfigZone[ateccx08conf.I2CAddressOffset]}))
		fmt.Fprintln(w, "Provision I2C Address:")
		fmt.Fprintln(w, prettyHex([]byte{provisionBytes[ateccx08conf.I2CAddressOffset]}))

		if dry {
			fmt.Fprintln(w, "Configuration:")
			fmt.Fprintln(w, prettyHex(provisionBytes[ateccx08conf.WritableOffset:]))
			fmt.Fprintln(w, `
WARNING! This operation is irreversible! Once you lock the configuration to the
device, you will not be able to change it.

To continue with this operation, re-run with -dry=false.`)
			return nil
		}

		if !di.IsConfigZoneLocked {
			if err := d.WriteConfig(ctx, provisionBytes); err != nil {
				return err
			}

			// Verify config zone
			currentBytes, err := d.ReadConfigZone(ctx)
			if err != nil {
				return err
			}

			// Skip the permanent manufacture specific header
			if !bytes.Equal(
				currentBytes[ateccx08conf.WritableOffset:],
				provisionBytes[ateccx08conf.WritableOffset:],
			) {
				return fmt.Errorf("configuration read from device does not match")
			}

			if err := d.Lock(ctx, ateccx08.LockZoneConfig); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(w, "    Locked, skipping")
		}

		fmt.Fprintln(w, "\nActivating Configuration")
		if !di.IsDataZoneLocked {
			if err := keyGen(ctx, w, dry, d); err != nil {
				return err
			}
			if err := d.Lock(ctx, ateccx08.LockZoneData); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(w, "    Already active")
		}
		return nil
	default:
		outputs := strings.Join(allOutputs, ", ")
		return fmt.Errorf("ateccx08: valid outputs are %s", outputs)
	}
}

func keyGen(ctx context.Context, w io.Writer, dry bool, d *ateccx08.Dev) error {
	// Read latest config zone after writes and all
	configZone, err := d.ReadConfigZone(ctx)
	if err != nil {
		return err
	}

	var conf ateccx08conf.Config
	if err := ateccx08conf.Unmarshal(configZone, &conf); err != nil {
		return err
	}

	for i := uint8(0); i <= ateccx08.MaxKeySlot; i++ {
		if !conf.KeyConfig[i].Private() {
			continue
		}

		if dry {
			fmt.Fprintf(w, "    Skipping key pair generation in slot %d: re-run with -dry=false\n", i)
			continue
		}

		fmt.Fprintln(w, "    Generating key pair in slot", i)
		pub, err := d.GenerateKey(ctx, i)
		if err != nil {
			return err
		}

		if p, err := pemEncodePublicKey(pub); err != nil {
			return err
		} else {
			fmt.Fprintln(w, p)
		}
	}

	return nil
}

// createProvisionConfig creates a 128-byte configuration for provisioning a
// device.
func createProvisionConfig(input string, r io.Reader, di *deviceInfo) ([]byte, error) {
	switch input {
	case inputDefault:
		return append([]byte(nil), ateccx08conf.DefaultTLS...), nil
	case inputHex:
		in, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		// Remove any whitespace incl newline
		s := strings.Join(strings.Fields(string(in)), "")

		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, err
		}
		if len(b) != ateccx08conf.Size {
			return nil, fmt.Errorf("ateccx08: configuration must be %d bytes, got %d",
				ateccx08conf.Size, len(b))
		}
		return b, nil
	case inputDevice:
		if di == nil {
			return nil, fmt.Errorf("ateccx08: no device connected")
		}
		return append([]byte(nil), di.ConfigZone...), nil
	default:
		return nil, fmt.Errorf("valid config sources are default, device, hex")
	}
}

func newConfCmd(
	rootConfig *rootConfig, in io.Reader, out io.Writer, err io.Writer,
) *ffcli.Command {
	cfg := confConfig{
		rootConfig: rootConfig,
		in:         in,
		out:        out,
		err:        err,
	}

	fs := flag.NewFlagSet("ateccx08 config", flag.ExitOnError)
	fs.StringVar(&cfg.input, "input", inputDefault, "Use this input for creating the provisioning configuration of the device: default (built-in), hex (stdin), device (read from device)")
	fs.StringVar(&cfg.output, "output", outputHex, "Use this output for the provisioning configuration: go, hex, json, device (write to device)")
	fs.BoolVar(&cfg.dry, "dry", true, "When disabled, data will be committed to device (this is irreversible!)")
	fs.StringVar(&cfg.newAddr, "new-addr", "", "Change I2C address to this")
	fs.BoolVar(&cfg.genKeys, "gen", false, "Generate new keys")
	rootConfig.registerFlags(fs)

	return addLongHelp(&ffcli.Command{
		Name:       "config",
		ShortUsage: "config",
		ShortHelp:  "Writes a general purpose configuration to test the hardware.",
		FlagSet:    fs,
		Exec:       cfg.Exec,
	})
}
