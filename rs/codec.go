package rs

import (
	"fmt"
	"sync"
)

// MinParity and MaxParity bound the parity byte count P accepted by Encode
// and Decode (spec.md section 4.5: "2 <= P <= 64").
const (
	MinParity = 2
	MaxParity = 64
)

var genPolyCache sync.Map // int (nroots) -> []byte, mirrors codec.Registry's cached-by-key pattern

// genPoly returns the monic generator polynomial (coefficients high-to-low,
// genPoly[0]=1) with roots alpha^1..alpha^nroots, building and caching it on
// first use for a given parity length.
func genPoly(nroots int) []byte {
	if cached, ok := genPolyCache.Load(nroots); ok {
		return cached.([]byte)
	}
	poly := []byte{1}
	for i := 1; i <= nroots; i++ {
		root := gf.pow(i)
		poly = polyMulLinear(poly, root)
	}
	genPolyCache.Store(nroots, poly)
	return poly
}

// polyMulLinear multiplies poly (high-to-low coefficients) by (x + root),
// returning a coefficient slice one degree higher.
func polyMulLinear(poly []byte, root byte) []byte {
	out := make([]byte, len(poly)+1)
	copy(out, poly)
	for i := 0; i < len(poly); i++ {
		out[i+1] ^= gf.mul(poly[i], root)
	}
	return out
}

// Encode appends P parity bytes to msg via systematic polynomial division,
// returning a codeword of length len(msg)+P.
func Encode(msg []byte, parity int) ([]byte, error) {
	if parity < MinParity || parity > MaxParity {
		return nil, fmt.Errorf("rs: parity %d out of range [%d, %d]", parity, MinParity, MaxParity)
	}
	if len(msg) == 0 {
		return nil, fmt.Errorf("rs: empty message")
	}
	g := genPoly(parity)
	rem := make([]byte, parity)
	for _, b := range msg {
		factor := b ^ rem[0]
		copy(rem, rem[1:])
		rem[parity-1] = 0
		if factor != 0 {
			for i := 0; i < parity; i++ {
				rem[i] ^= gf.mul(g[i+1], factor)
			}
		}
	}
	out := make([]byte, 0, len(msg)+parity)
	out = append(out, msg...)
	out = append(out, rem...)
	return out, nil
}

// Decode locates and corrects up to floor(parity/2) byte errors in codeword
// and returns the original message bytes. ok is false when the codeword
// could not be decoded to a consistent (zero-syndrome) state.
func Decode(codeword []byte, parity int) (msg []byte, ok bool, err error) {
	if parity < MinParity || parity > MaxParity {
		return nil, false, fmt.Errorf("rs: parity %d out of range [%d, %d]", parity, MinParity, MaxParity)
	}
	n := len(codeword)
	if n <= parity {
		return nil, false, fmt.Errorf("rs: codeword length %d too short for parity %d", n, parity)
	}
	k := n - parity

	data := make([]byte, n)
	copy(data, codeword)

	synd := syndromes(data, parity)
	if allZero(synd) {
		return data[:k], true, nil
	}

	t := parity / 2
	for v := t; v >= 1; v-- {
		sigma, solved := solvePGZ(synd, v)
		if !solved {
			continue
		}
		positions := chienSearch(sigma, n)
		if len(positions) != v {
			continue
		}
		errVals := forney(synd, sigma, positions, n)

		candidate := make([]byte, n)
		copy(candidate, data)
		for i, pos := range positions {
			candidate[pos] ^= errVals[i]
		}

		if allZero(syndromes(candidate, parity)) {
			return candidate[:k], true, nil
		}
	}
	return nil, false, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// syndromes returns S_1..S_parity, S_i = eval(data, alpha^i), treating
// data[0] as the highest-degree coefficient.
func syndromes(data []byte, parity int) []byte {
	s := make([]byte, parity)
	for i := 1; i <= parity; i++ {
		root := gf.pow(i)
		s[i-1] = evalHighLow(data, root)
	}
	return s
}

func evalHighLow(p []byte, x byte) byte {
	var result byte
	for _, coef := range p {
		result = gf.mul(result, x) ^ coef
	}
	return result
}

// solvePGZ solves the Peterson-Gorenstein-Zierler linear system for a
// degree-v error locator polynomial sigma, given the syndromes S_1..S_parity
// (synd[i] = S_{i+1}). Returns sigma as low-to-high coefficients
// (sigma[0]=1, sigma[1..v] solved) and whether the system was nonsingular.
func solvePGZ(synd []byte, v int) (sigma []byte, ok bool) {
	mat := make([][]byte, v)
	for r := 0; r < v; r++ {
		row := make([]byte, v+1)
		for c := 0; c < v; c++ {
			row[c] = synd[v+r-c-1]
		}
		row[v] = synd[v+r]
		mat[r] = row
	}

	for col := 0; col < v; col++ {
		pivot := -1
		for r := col; r < v; r++ {
			if mat[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, false
		}
		mat[col], mat[pivot] = mat[pivot], mat[col]
		invPivot := gf.inv(mat[col][col])
		for c := col; c <= v; c++ {
			mat[col][c] = gf.mul(mat[col][c], invPivot)
		}
		for r := 0; r < v; r++ {
			if r == col {
				continue
			}
			factor := mat[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c <= v; c++ {
				mat[r][c] ^= gf.mul(factor, mat[col][c])
			}
		}
	}

	sigma = make([]byte, v+1)
	sigma[0] = 1
	for r := 0; r < v; r++ {
		sigma[r+1] = mat[r][v]
	}
	return sigma, true
}

// chienSearch finds the array positions (0-indexed, highest-degree-first)
// whose corresponding error-locator value is a root of sigma.
func chienSearch(sigma []byte, n int) []int {
	var positions []int
	for idx := 0; idx < n; idx++ {
		exp := n - 1 - idx
		xInv := gf.pow(-exp)
		if evalLowHigh(sigma, xInv) == 0 {
			positions = append(positions, idx)
		}
	}
	return positions
}

func evalLowHigh(p []byte, x byte) byte {
	var result byte
	for i := len(p) - 1; i >= 0; i-- {
		result = gf.mul(result, x) ^ p[i]
	}
	return result
}

// forney computes the error magnitude at each located position via the
// Forney algorithm: Y_k = Omega(X_k^-1) / sigma'(X_k^-1).
func forney(synd, sigma []byte, positions []int, n int) []byte {
	v := len(positions)
	omega := polyMulTruncated(sigma, synd, v)
	deriv := formalDerivative(sigma)

	vals := make([]byte, v)
	for i, pos := range positions {
		exp := n - 1 - pos
		xInv := gf.pow(-exp)
		num := evalLowHigh(omega, xInv)
		den := evalLowHigh(deriv, xInv)
		if den == 0 {
			continue
		}
		vals[i] = gf.div(num, den)
	}
	return vals
}

// polyMulTruncated multiplies two low-to-high coefficient polynomials and
// keeps only the terms of degree < deg.
func polyMulTruncated(a, b []byte, deg int) []byte {
	out := make([]byte, deg)
	for i := 0; i < len(a) && i < deg; i++ {
		if a[i] == 0 {
			continue
		}
		for j := 0; j < len(b) && i+j < deg; j++ {
			out[i+j] ^= gf.mul(a[i], b[j])
		}
	}
	return out
}

// formalDerivative returns sigma'(x) for a low-to-high sigma; in
// characteristic 2, even-degree terms vanish.
func formalDerivative(sigma []byte) []byte {
	v := len(sigma) - 1
	deriv := make([]byte, v)
	for q := 0; q < v; q++ {
		if (q+1)%2 == 1 {
			deriv[q] = sigma[q+1]
		}
	}
	return deriv
}
