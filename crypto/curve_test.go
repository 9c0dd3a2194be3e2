package crypto

import (
	"crypto/rand"
	"testing"
)

func TestGeneratorOnCurve(t *testing.T) {
	if !OnCurve(Generator) {
		t.Fatal("generator must lie on the curve")
	}
}

func TestPowerOrderIsIdentity(t *testing.T) {
	e := Power(Order.BitIter())
	if e != ZeroPoint() {
		t.Fatalf("G*order should be the identity, got %+v", e)
	}
}

func TestPointEncodeDecodeRoundTrip(t *testing.T) {
	k, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := Power(W(k).BitIter())
	n := EncodePoint(p)
	p2, ok := DecodePoint(n)
	if !ok {
		t.Fatal("expected point to decode")
	}
	if p != p2 {
		t.Fatalf("decode mismatch: %+v != %+v", p, p2)
	}
}

func TestCalcXProducesPointOnCurve(t *testing.T) {
	y := MustFromHex("57646626CB303A9EEBAAD078ACD56328DC4BFFC745FD5063738D9E10BF513204").Mod(Modulo)
	x, ok := CalcX(y)
	if !ok {
		t.Fatal("expected a square root to exist")
	}
	if !OnCurve(Point{X: x, Y: y}) {
		t.Fatal("calculated point should satisfy the curve equation")
	}
}

func TestScalarMulMatchesRepeatedAdd(t *testing.T) {
	p := Generator
	viaAdd := AddPoints(AddPoints(p, p), p) // 3*G
	viaMul := ScalarMul(p, FromUint64(3).BitIter())
	if viaAdd != viaMul {
		t.Fatalf("3*G mismatch: %+v != %+v", viaAdd, viaMul)
	}
}
