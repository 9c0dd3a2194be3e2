package crypto

// curve.go implements the twisted Edwards curve used by uqoin's signature
// scheme: Ed25519, defined by
//
//	-x^2 + y^2 = 1 - scalar*x^2*y^2   (mod modulo)
//
// with modulo = 2^255-19, cofactor 8, and the standard Ed25519 generator.
// Affine coordinates are used throughout; this is adequate for the
// transaction volumes the protocol deals with and keeps point encoding
// (encode/decode a point as a single word, per the sign-bit convention
// below) straightforward.

// Point is an affine point (x, y) on the curve.
type Point struct {
	X, Y W
}

// Curve parameters, fixed at the package level: every participant in the
// network must agree on exactly these values.
var (
	// Modulo is the curve's base field modulus, 2^255-19.
	Modulo = MustFromHex("7FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFED")

	// Scalar is the twist coefficient of the curve equation.
	Scalar = MustFromHex("2DFC9311D490018C7338BF8688861767FF8FF5B2BEBE27548A14B235ECA6874A")

	// Order is the order of the curve (and the group generated by Generator).
	Order = MustFromHex("1000000000000000000000000000000014DEF9DEA2F79CD65812631A5CF5D3ED")

	// Cofactor is the curve's cofactor.
	Cofactor = FromUint64(8)

	// Generator is the base point.
	Generator = Point{
		X: MustFromHex("216936D3CD6E53FEC0A4E231FDD6DC5C692CC7609525A7B2C9562D608F25D51A"),
		Y: mustMod("6666666666666666666666666666666666666666666666666666666666666658"),
	}
)

func mustMod(hexStr string) W {
	w := MustFromHex(hexStr)
	return w.Mod(Modulo)
}

// ZeroPoint is the group identity (0, 1).
func ZeroPoint() Point {
	return Point{X: Zero, Y: One}
}

// OnCurve reports whether p satisfies the curve equation.
func OnCurve(p Point) bool {
	x2 := p.X.MulMod(p.X, Modulo)
	y2 := p.Y.MulMod(p.Y, Modulo)
	left := y2.SubMod(x2, Modulo)
	right := One.SubMod(Scalar.MulMod(x2.MulMod(y2, Modulo), Modulo), Modulo)
	return left == right
}

// NegPoint returns the additive inverse of p.
func NegPoint(p Point) Point {
	return Point{X: p.X.NegMod(Modulo), Y: p.Y}
}

// AddPoints adds two points on the curve using the twisted Edwards
// addition law.
func AddPoints(a, b Point) Point {
	aXY := a.X.MulMod(a.Y, Modulo)
	bXY := b.X.MulMod(b.Y, Modulo)
	f := Scalar.MulMod(aXY, Modulo).MulMod(bXY, Modulo)
	xNum := a.X.MulMod(b.Y, Modulo).AddMod(a.Y.MulMod(b.X, Modulo), Modulo)
	xDen := One.SubMod(f, Modulo)
	yNum := a.Y.MulMod(b.Y, Modulo).AddMod(a.X.MulMod(b.X, Modulo), Modulo)
	yDen := One.AddMod(f, Modulo)

	x, ok := xNum.DivMod(xDen, Modulo)
	if !ok {
		panic("crypto: point addition hit non-invertible denominator")
	}
	y, ok := yNum.DivMod(yDen, Modulo)
	if !ok {
		panic("crypto: point addition hit non-invertible denominator")
	}
	return Point{X: x, Y: y}
}

// ScalarMul computes bits-weighted kG via double-and-add, where bits are
// ordered least-significant-first (as produced by W.BitIter).
func ScalarMul(p Point, bits []bool) Point {
	result := ZeroPoint()
	addend := p
	for _, bit := range bits {
		if bit {
			result = AddPoints(result, addend)
		}
		addend = AddPoints(addend, addend)
	}
	return result
}

// Power computes kG for the generator point.
func Power(bits []bool) Point {
	return ScalarMul(Generator, bits)
}

// CalcX recovers an x-coordinate for a given y, or false if y does not
// correspond to a point on the curve. Either of the two roots may be
// returned; its parity is not fixed (DecodePoint adjusts it).
func CalcX(y W) (W, bool) {
	y2 := y.MulMod(y, Modulo)
	num := One.SubMod(y2, Modulo)
	den := y2.MulMod(Scalar, Modulo).SubMod(One, Modulo)
	x2, ok := num.DivMod(den, Modulo)
	if !ok {
		return W{}, false
	}
	return x2.SqrtMod(Modulo)
}

// EncodePoint serializes a point into a single word: y with bit 255
// carrying the parity (bit 0) of x.
func EncodePoint(p Point) W {
	y := p.Y
	if p.X.Bit(0) {
		y = y.SetBit(255, true)
	}
	return y
}

// DecodePoint deserializes a point from a word produced by EncodePoint.
// Returns false if the stored y has no corresponding curve point.
func DecodePoint(n W) (Point, bool) {
	isOdd := n.Bit(255)
	y := n.SetBit(255, false)

	x, ok := CalcX(y)
	if !ok {
		return Point{}, false
	}
	if x.Bit(0) != isOdd {
		x = x.NegMod(Modulo)
	}
	return Point{X: x, Y: y}, true
}
