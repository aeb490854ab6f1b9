// Package blockdct implements the non-overlapping 8x8 block DCT engine (C2):
// padding a plane to block multiples, a row-major block grid view, and the
// separable type-II forward/inverse DCT used to expose one mid-frequency
// coefficient per block to the QIM coder.
//
// The teacher's jpeg/common/dct.go and idct.go implement a fixed-point,
// byte-in/byte-out 8x8 DCT tuned for JPEG's level-shifted [0,255] samples.
// That butterfly network only round-trips to 8-bit precision, which is fine
// for JPEG but not for QIM, where an embed must survive an inverse DCT and
// come back out close enough to the original real-valued coefficient that a
// forward DCT (with no added noise) reads the same lattice point. This
// package keeps the teacher's separable-transform structure (1D transform on
// rows, then on columns) but switches to a float64 orthonormal DCT-II basis
// matrix, which is invertible to floating-point rounding rather than to
// 8-bit quantization.
package blockdct

import "math"

// BlockSize is the fixed DCT block edge (spec.md section 3).
const BlockSize = 8

var basis [BlockSize][BlockSize]float64

func init() {
	for u := 0; u < BlockSize; u++ {
		alpha := math.Sqrt(2.0 / BlockSize)
		if u == 0 {
			alpha = math.Sqrt(1.0 / BlockSize)
		}
		for x := 0; x < BlockSize; x++ {
			basis[u][x] = alpha * math.Cos((2*float64(x)+1)*float64(u)*math.Pi/(2*BlockSize))
		}
	}
}

// Block is a BlockSize x BlockSize tile of a plane, row-major.
type Block [BlockSize][BlockSize]float64

// Forward applies the separable 2D type-II DCT to a spatial-domain block.
func Forward(b Block) Block {
	return transform(b, false)
}

// Inverse applies the separable 2D type-III (inverse) DCT to a
// coefficient-domain block, recovering the spatial-domain block.
func Inverse(b Block) Block {
	return transform(b, true)
}

// transform performs rows-then-columns separable multiplication by basis
// (forward) or basis^T (inverse); basis is orthonormal so the inverse is
// simply the transpose.
func transform(b Block, inverse bool) Block {
	var tmp, out Block

	// Rows: tmp = basis * b   (forward)   or   basis^T * b   (inverse)
	for u := 0; u < BlockSize; u++ {
		for x := 0; x < BlockSize; x++ {
			var sum float64
			for k := 0; k < BlockSize; k++ {
				if inverse {
					sum += basis[k][u] * b[k][x]
				} else {
					sum += basis[u][k] * b[k][x]
				}
			}
			tmp[u][x] = sum
		}
	}

	// Columns: out = tmp * basis^T   (forward)   or   tmp * basis   (inverse)
	for u := 0; u < BlockSize; u++ {
		for v := 0; v < BlockSize; v++ {
			var sum float64
			for k := 0; k < BlockSize; k++ {
				if inverse {
					sum += tmp[u][k] * basis[k][v]
				} else {
					sum += tmp[u][k] * basis[v][k]
				}
			}
			out[u][v] = sum
		}
	}
	return out
}
