// Package rs implements the Reed-Solomon outer code (C5): a GF(2^8)
// systematic encoder and a syndrome/Peterson-Gorenstein-Zierler decoder that
// locates and corrects up to floor(P/2) byte errors without being told
// where they are.
//
// The pack's reedsolomon library (github.com/klauspost/reedsolomon, used by
// andresmejia3-Hide's steganography tool) only reconstructs from erasures at
// known positions; it has no blind error-locating decoder, which spec.md
// section 4.5 requires ("decode with error correction up to floor(P/2)
// bytes" with undefined error positions). The GF(2^8) log/antilog table
// construction below follows the same structure
// doismellburning-samoyed's FX.25 implementation uses to initialize its
// Reed-Solomon codec (fx25_init.go: init_rs_char) before calling
// decode_rs_char per received block (fx25_rec.go: process_rs_block) — the
// table-building algorithm is grounded there; the syndrome/PGZ decode body
// is the standard algorithm that decode_rs_char (not itself present in the
// retrieved snippet) implements.
package rs

// gf256 is GF(2^8) with primitive polynomial 0x11d (x^8+x^4+x^3+x^2+1) and
// generator element alpha = 2.
type gf256 struct {
	exp [510]byte // alpha^i for i in [0, 509], doubled to avoid modulo on multiply
	log [256]byte // discrete log base alpha
}

const gfPoly = 0x11d

func newGF256() *gf256 {
	g := &gf256{}
	x := 1
	for i := 0; i < 255; i++ {
		g.exp[i] = byte(x)
		g.log[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= gfPoly
		}
	}
	for i := 255; i < 510; i++ {
		g.exp[i] = g.exp[i-255]
	}
	return g
}

var gf = newGF256()

func (g *gf256) mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return g.exp[int(g.log[a])+int(g.log[b])]
}

// div returns a/b; b must be nonzero.
func (g *gf256) div(a, b byte) byte {
	if a == 0 {
		return 0
	}
	diff := int(g.log[a]) - int(g.log[b])
	diff = ((diff % 255) + 255) % 255
	return g.exp[diff]
}

// pow returns alpha^n for any integer n (negative allowed).
func (g *gf256) pow(n int) byte {
	e := ((n % 255) + 255) % 255
	return g.exp[e]
}

func (g *gf256) inv(a byte) byte {
	return g.exp[(255-int(g.log[a]))%255]
}
