package crypto

// signature.go implements uqoin's signature scheme: an ECDSA variant over
// the Ed25519 twisted Edwards curve in which the public key can always be
// recovered deterministically from a (message, signature) pair — there is
// no multi-candidate disambiguation, because the point parity is already
// encoded in the signature's r component. This is what lets a block's
// transactions name only a coin, an address and a signature: the sender
// is derived, never stored.

import (
	"fmt"
	"io"
)

// SecretKey is a scalar in [0, Order).
type SecretKey W

// PublicKey is a curve point encoded as a word.
type PublicKey W

// Signature is the (r, s) pair produced by Sign.
type Signature struct {
	R, S W
}

// GenerateKey draws a uniformly random secret key from entropy read from
// rand, reducing modulo the curve order.
func GenerateKey(rand io.Reader) (SecretKey, error) {
	var buf [32]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return SecretKey{}, fmt.Errorf("crypto: failed to read entropy: %w", err)
	}
	k := FromBytes(buf[:]).Mod(Order)
	return SecretKey(k), nil
}

// Public derives the public key for a secret key: P = k*G, encoded as a
// word.
func (k SecretKey) Public() PublicKey {
	p := Power(W(k).BitIter())
	return PublicKey(EncodePoint(p))
}

// Sign produces a signature over message msg with secret key k, drawing
// the per-signature nonce from rand.
//
//	t = random scalar
//	R = t*G, r = encode(R)
//	s = (msg + k*r) / t   (mod Order)
func Sign(rand io.Reader, msg W, k SecretKey) (Signature, error) {
	t, err := GenerateKey(rand)
	if err != nil {
		return Signature{}, err
	}
	r := EncodePoint(Power(W(t).BitIter()))
	q := r.Mod(Order)

	num := msg.AddMod(W(k).MulMod(q, Order), Order)
	s, ok := num.DivMod(W(t), Order)
	if !ok {
		// t happened to be zero mod Order; vanishingly unlikely, retry.
		return Sign(rand, msg, k)
	}
	return Signature{R: r, S: s}, nil
}

// ExtractPublic recovers the public key that produced signature sig over
// message msg. It is the single operation both Verify and "who sent this
// transaction" recovery are built from:
//
//	R  = decode(r)
//	q  = r mod Order
//	P' = (s/q)*R - (msg/q)*G
func ExtractPublic(msg W, sig Signature) (PublicKey, error) {
	r, ok := DecodePoint(sig.R)
	if !ok {
		return PublicKey{}, fmt.Errorf("crypto: signature r does not decode to a curve point")
	}

	q := sig.R.Mod(Order)
	if q.IsZero() {
		return PublicKey{}, fmt.Errorf("crypto: signature r is zero mod curve order")
	}

	u, ok := sig.S.DivMod(q, Order)
	if !ok {
		return PublicKey{}, fmt.Errorf("crypto: signature s is not invertible against r")
	}
	v, ok := msg.DivMod(q, Order)
	if !ok {
		return PublicKey{}, fmt.Errorf("crypto: message is not invertible against r")
	}

	p := AddPoints(ScalarMul(r, W(u).BitIter()), NegPoint(Power(W(v).BitIter())))
	return PublicKey(EncodePoint(p)), nil
}

// Verify reports whether sig is a valid signature over msg for public.
func Verify(msg W, public PublicKey, sig Signature) bool {
	recovered, err := ExtractPublic(msg, sig)
	if err != nil {
		return false
	}
	return recovered == public
}
