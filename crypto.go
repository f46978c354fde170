package ateccx08

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

const (
	// publicKeySize is an uncompressed P-256 public key, X||Y.
	publicKeySize = 64
	// signatureSize is a raw P-256 signature, R||S.
	signatureSize = 64
	// digestSize is a SHA-256 digest.
	digestSize = 32
	// sharedSecretSize is an ECDH shared secret.
	sharedSecretSize = 32
)

// Nonce combines an internally generated random number with a 20-byte host
// value and returns the 32-byte result.
//
// The command also refreshes the device RNG seed.
func (d *Dev) Nonce(ctx context.Context, numIn []byte) ([]byte, error) {
	cmd, err := newNonceCommand(nonceModeSeedUpdate, 0, numIn)
	if err != nil {
		return nil, err
	}

	var nonce [32]byte
	n, err := d.executeResponse(ctx, cmd, nonce[:])
	if err != nil {
		return nil, err
	}
	if n != len(nonce) {
		return nil, fmt.Errorf("ateccx08: short nonce response of %d bytes: %w", n, ErrNoResponse)
	}
	return nonce[:], nil
}

// NonceLoad loads a 32-byte value directly into the device's message buffer
// using the Nonce command in pass-through mode.
//
// The input must be exactly 32 bytes. The device acknowledges the load with
// a status byte; a non-zero status surfaces as a *StatusError.
func (d *Dev) NonceLoad(ctx context.Context, numIn []byte) error {
	cmd, err := newNonceCommand(nonceModePassthrough, 0, numIn)
	if err != nil {
		return err
	}
	return d.execute(ctx, cmd)
}

// GenerateKey generates a new random private key in the slot and returns
// its public key.
//
// Valid slots are 0 through 4. The previous key in the slot, if any, is
// gone afterwards.
func (d *Dev) GenerateKey(ctx context.Context, slot uint8) (crypto.PublicKey, error) {
	return d.genKey(ctx, genKeyModePrivate, slot)
}

// PublicKey computes the public key of the private key in the slot.
func (d *Dev) PublicKey(ctx context.Context, slot uint8) (crypto.PublicKey, error) {
	return d.genKey(ctx, genKeyModePublic, slot)
}

func (d *Dev) genKey(ctx context.Context, mode uint8, slot uint8) (crypto.PublicKey, error) {
	cmd, err := newGenKeyCommand(mode, slot)
	if err != nil {
		return nil, err
	}

	var pk [publicKeySize]byte
	n, err := d.executeResponse(ctx, cmd, pk[:])
	if err != nil {
		return nil, err
	}
	if n != publicKeySize {
		return nil, fmt.Errorf("ateccx08: unexpected public key size %d: %w", n, ErrNoResponse)
	}

	var x, y big.Int
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     x.SetBytes(pk[:32]),
		Y:     y.SetBytes(pk[32:]),
	}, nil
}

// Sign signs a 32-byte message digest using the private key in the slot.
//
// The digest is loaded through the nonce pass-through buffer and signed
// with the Sign command in external mode. It returns the ASN.1 encoded
// signature.
func (d *Dev) Sign(ctx context.Context, slot uint8, digest []byte) ([]byte, error) {
	sig, err := d.signDigest(ctx, slot, digest)
	if err != nil {
		return nil, err
	}

	var r, s big.Int
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r.SetBytes(sig[:32]))
		b.AddASN1BigInt(s.SetBytes(sig[32:]))
	})
	return b.Bytes()
}

// SignRaw is like Sign but returns the raw 64-byte R||S signature.
func (d *Dev) SignRaw(ctx context.Context, slot uint8, digest []byte) ([]byte, error) {
	return d.signDigest(ctx, slot, digest)
}

func (d *Dev) signDigest(ctx context.Context, slot uint8, digest []byte) ([]byte, error) {
	if len(digest) != digestSize {
		return nil, fmt.Errorf("ateccx08: sign digest must be %d bytes, got %d: %w",
			digestSize, len(digest), ErrInvalidParam)
	}
	if err := validateKeySlot(slot); err != nil {
		return nil, err
	}

	if err := d.NonceLoad(ctx, digest); err != nil {
		return nil, err
	}

	cmd, err := newSignCommand(signModeExternal, slot)
	if err != nil {
		return nil, err
	}

	var sig [signatureSize]byte
	n, err := d.executeResponse(ctx, cmd, sig[:])
	if err != nil {
		return nil, err
	}
	if n != signatureSize {
		return nil, fmt.Errorf("ateccx08: unexpected signature size %d: %w", n, ErrNoResponse)
	}
	return sig[:], nil
}

// ECDH computes the shared secret between the private key in the slot and
// the peer public key.
func (d *Dev) ECDH(ctx context.Context, slot uint8, peer crypto.PublicKey) ([]byte, error) {
	var pk [publicKeySize]byte
	switch peer := peer.(type) {
	case *ecdsa.PublicKey:
		peer.X.FillBytes(pk[:32])
		peer.Y.FillBytes(pk[32:])
	default:
		return nil, fmt.Errorf("ateccx08: unsupported ecdh public key type %T: %w",
			peer, ErrInvalidParam)
	}

	cmd, err := newECDHCommand(ecdhModeClearOutput, slot, pk[:])
	if err != nil {
		return nil, err
	}

	var secret [sharedSecretSize]byte
	n, err := d.executeResponse(ctx, cmd, secret[:])
	if err != nil {
		return nil, err
	}
	if n != sharedSecretSize {
		return nil, fmt.Errorf("ateccx08: unexpected shared secret size %d: %w", n, ErrNoResponse)
	}
	return secret[:], nil
}

// PrivateKey returns a crypto.Signer backed by the key in the slot.
func (d *Dev) PrivateKey(ctx context.Context, slot uint8) (crypto.PrivateKey, error) {
	pub, err := d.PublicKey(ctx, slot)
	if err != nil {
		return nil, err
	}
	return &privateKey{ctx, pub, d, slot}, nil
}

// privateKey wraps a device and key slot for private key operations.
//
// privateKey implements crypto.Signer and crypto.PrivateKey.
type privateKey struct {
	ctx  context.Context
	pub  crypto.PublicKey
	d    *Dev
	slot uint8
}

var _ crypto.Signer = &privateKey{}

// Public returns the public key corresponding to the opaque, private key.
func (priv *privateKey) Public() crypto.PublicKey {
	return priv.pub
}

// Sign signs digest with the private key.
//
// This implements crypto.Signer.
func (priv *privateKey) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return priv.d.Sign(priv.ctx, priv.slot, digest)
}
