package blockdct

// Grid is a plane padded to multiples of BlockSize, addressed by row-major
// flat block index. Block access copies: BlockAt returns a copy of a block
// and SetBlockAt writes one back; there is no in-place (nH, nW, 8, 8) view
// of the plane. Pad amounts are recorded so
// Unpad can invert Pad exactly, matching spec.md section 4.2.
type Grid struct {
	plane      [][]float64 // padded plane, Height x Width
	Height     int         // padded height
	Width      int         // padded width
	OrigHeight int
	OrigWidth  int
	NH         int // block rows
	NW         int // block columns
}

// Pad pads a plane with zero rows/columns at bottom/right so both dimensions
// become multiples of BlockSize.
func Pad(plane [][]float64) *Grid {
	origH := len(plane)
	origW := 0
	if origH > 0 {
		origW = len(plane[0])
	}

	paddedH := ceilToMultiple(origH, BlockSize)
	paddedW := ceilToMultiple(origW, BlockSize)

	padded := make([][]float64, paddedH)
	for y := 0; y < paddedH; y++ {
		row := make([]float64, paddedW)
		if y < origH {
			copy(row, plane[y])
		}
		padded[y] = row
	}

	return &Grid{
		plane:      padded,
		Height:     paddedH,
		Width:      paddedW,
		OrigHeight: origH,
		OrigWidth:  origW,
		NH:         paddedH / BlockSize,
		NW:         paddedW / BlockSize,
	}
}

func ceilToMultiple(v, m int) int {
	if v%m == 0 {
		return v
	}
	return (v/m + 1) * m
}

// Blocks returns the total number of 8x8 blocks, B = nH*nW.
func (g *Grid) Blocks() int { return g.NH * g.NW }

// BlockAt returns a copy of the block at row-major flat index i.
func (g *Grid) BlockAt(i int) Block {
	row, col := g.coords(i)
	var b Block
	for y := 0; y < BlockSize; y++ {
		for x := 0; x < BlockSize; x++ {
			b[y][x] = g.plane[row+y][col+x]
		}
	}
	return b
}

// SetBlockAt writes a block back into the grid at row-major flat index i.
func (g *Grid) SetBlockAt(i int, b Block) {
	row, col := g.coords(i)
	for y := 0; y < BlockSize; y++ {
		for x := 0; x < BlockSize; x++ {
			g.plane[row+y][col+x] = b[y][x]
		}
	}
}

func (g *Grid) coords(i int) (row, col int) {
	blockRow := i / g.NW
	blockCol := i % g.NW
	return blockRow * BlockSize, blockCol * BlockSize
}

// Unpad returns the plane cropped back to the original, pre-Pad dimensions.
func (g *Grid) Unpad() [][]float64 {
	out := make([][]float64, g.OrigHeight)
	for y := 0; y < g.OrigHeight; y++ {
		row := make([]float64, g.OrigWidth)
		copy(row, g.plane[y][:g.OrigWidth])
		out[y] = row
	}
	return out
}
