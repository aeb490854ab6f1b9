// Package pixio implements pixel I/O and color conversion (C1): decoding
// images to a planar Y/Cb/Cr float buffer, recomposing and saving, the
// pre-normalization primitives resize_long_edge/center_crop_to_mod/
// jpeg_roundtrip, and the PSNR/SSIM quality metrics.
//
// Decode/encode and the Lanczos resize are done through
// github.com/disintegration/imaging, the "common image-processing
// library" spec.md section 4.1 defers the BGR<->YCrCb and resize routines
// to; it is the same library several other repos in the pack
// (niemandssh-stash-reforged, NeboLoop-nebo, petervdpas-goop2,
// writerslogic-witnessd) reach for to avoid hand-rolling image decode and
// resampling. The BT.601 full-range matrix itself is ordinary arithmetic,
// grounded on the YCbCr conversion in
// other_examples' DWT-DCT-SVD watermarker (internal/watermark/image.go),
// which performs the analogous RGB<->YCrCb split before operating on a
// luminance-adjacent channel.
package pixio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/klyvo/iwm/wmerr"
)

// Planar is the working image buffer: a luminance plane Y and two chroma
// planes Cb, Cr, all in [0, 255] float64, row-major (row, col) indexing.
type Planar struct {
	Width, Height int
	Y, Cb, Cr     [][]float64
}

func alloc(h, w int) [][]float64 {
	p := make([][]float64, h)
	for i := range p {
		p[i] = make([]float64, w)
	}
	return p
}

// Load decodes an image file (any format the imaging library decodes) into
// a Planar buffer.
func Load(path string) (*Planar, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, wmerr.Wrap(wmerr.UnreadableMedia, "decode image", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, wmerr.New(wmerr.UnreadableMedia, "empty image")
	}
	return fromNRGBA(imaging.Clone(img)), nil
}

// fromNRGBA converts an *image.NRGBA to the planar Y/Cb/Cr buffer using the
// full-range ITU-R BT.601 matrix.
func fromNRGBA(img *image.NRGBA) *Planar {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	p := &Planar{Width: w, Height: h, Y: alloc(h, w), Cb: alloc(h, w), Cr: alloc(h, w)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			r, g, bl := float64(c.R), float64(c.G), float64(c.B)
			p.Y[y][x] = 0.299*r + 0.587*g + 0.114*bl
			p.Cb[y][x] = -0.168736*r - 0.331264*g + 0.5*bl + 128
			p.Cr[y][x] = 0.5*r - 0.418688*g - 0.081312*bl + 128
		}
	}
	return p
}

func clip8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ToNRGBA recomposes the planar buffer to an 8-bit RGBA image, clipping to
// [0, 255] and rounding.
func (p *Planar) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			yv := p.Y[y][x]
			cb := p.Cb[y][x] - 128
			cr := p.Cr[y][x] - 128
			r := yv + 1.402*cr
			g := yv - 0.344136*cb - 0.714136*cr
			bl := yv + 1.772*cb
			img.SetNRGBA(x, y, color.NRGBA{R: clip8(r), G: clip8(g), B: clip8(bl), A: 255})
		}
	}
	return img
}

// Save writes the planar buffer as a lossless 8-bit PNG, or a JPEG if path
// ends in .jpg/.jpeg.
func Save(p *Planar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return wmerr.Wrap(wmerr.ToolFailure, "create output file", err)
	}
	defer f.Close()

	img := p.ToNRGBA()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return wmerr.Wrap(wmerr.ToolFailure, "encode output image", err)
	}
	return nil
}

// JPEGRoundtrip encodes the buffer as JPEG at the given quality and decodes
// it back, simulating one lossy recompression pass.
func JPEGRoundtrip(p *Planar, quality int) (*Planar, error) {
	img := p.ToNRGBA()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, wmerr.Wrap(wmerr.ToolFailure, "jpeg encode", err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, wmerr.Wrap(wmerr.ToolFailure, "jpeg decode", err)
	}
	return fromNRGBA(imaging.Clone(decoded)), nil
}

// ResizeLongEdge downsamples (never upsamples) so that max(height, width)
// equals long, using Lanczos resampling. If the image's long edge is
// already <= long, it is returned unchanged.
func ResizeLongEdge(p *Planar, long int) *Planar {
	if long <= 0 {
		return p
	}
	longEdge := p.Width
	if p.Height > longEdge {
		longEdge = p.Height
	}
	if longEdge <= long {
		return p
	}
	img := p.ToNRGBA()
	var resized *image.NRGBA
	if p.Width >= p.Height {
		resized = imaging.Resize(img, long, 0, imaging.Lanczos)
	} else {
		resized = imaging.Resize(img, 0, long, imaging.Lanczos)
	}
	return fromNRGBA(resized)
}

// CenterCropToMod reduces the image to the largest dimensions that are
// multiples of mod, cropping symmetrically.
func CenterCropToMod(p *Planar, mod int) *Planar {
	if mod <= 0 {
		return p
	}
	newW := (p.Width / mod) * mod
	newH := (p.Height / mod) * mod
	if newW == p.Width && newH == p.Height {
		return p
	}
	if newW == 0 || newH == 0 {
		return p
	}
	img := p.ToNRGBA()
	cropped := imaging.CropCenter(img, newW, newH)
	return fromNRGBA(cropped)
}

// PSNR computes peak signal-to-noise ratio between two equal-sized planes
// (spec.md section 4.1): 10*log10(255^2/MSE), with an MSE floor of 1e-12
// reported as the sentinel 99 dB.
func PSNR(a, b [][]float64) float64 {
	mse := meanSquaredError(a, b)
	if mse < 1e-12 {
		return 99.0
	}
	return 10 * math.Log10(255.0*255.0/mse)
}

func meanSquaredError(a, b [][]float64) float64 {
	var sum float64
	var n int
	for y := range a {
		for x := range a[y] {
			d := a[y][x] - b[y][x]
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
