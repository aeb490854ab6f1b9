package pixio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klyvo/iwm/wmerr"
)

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / (w - 1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, img *image.NRGBA, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gradient.png")
	writePNG(t, gradientImage(64, 32), path)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if p.Width != 64 || p.Height != 32 {
		t.Fatalf("dims = %dx%d, want 64x32", p.Width, p.Height)
	}
}

func TestLoadMissingFileIsUnreadableMedia(t *testing.T) {
	_, err := Load("/nonexistent/path/image.png")
	if !wmerr.Is(err, wmerr.UnreadableMedia) {
		t.Fatalf("expected UnreadableMedia error for missing file, got %v", err)
	}
}

func TestSaveLoadPreservesPixelsApproximately(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	src := gradientImage(32, 32)
	p := fromNRGBA(src)
	if err := Save(p, path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	psnr := PSNR(p.Y, reloaded.Y)
	if psnr < 40 {
		t.Fatalf("PSNR after lossless PNG round trip = %v, want >= 40", psnr)
	}
}

func TestPSNRIdenticalIsSentinel(t *testing.T) {
	p := fromNRGBA(gradientImage(16, 16))
	if got := PSNR(p.Y, p.Y); got != 99.0 {
		t.Fatalf("PSNR(identical) = %v, want 99.0", got)
	}
}

func TestPSNRDecreasesWithNoise(t *testing.T) {
	a := fromNRGBA(gradientImage(16, 16))
	b := fromNRGBA(gradientImage(16, 16))
	for y := range b.Y {
		for x := range b.Y[y] {
			b.Y[y][x] += 10
		}
	}
	psnr := PSNR(a.Y, b.Y)
	if psnr >= 99.0 {
		t.Fatalf("PSNR with noise = %v, want < 99.0", psnr)
	}
}

func TestSSIMIdenticalIsOne(t *testing.T) {
	p := fromNRGBA(gradientImage(32, 32))
	got := SSIM(p.Y, p.Y)
	if got < 0.999 {
		t.Fatalf("SSIM(identical) = %v, want ~1.0", got)
	}
}

func TestSSIMSmallImageFallsBackToGlobal(t *testing.T) {
	p := fromNRGBA(gradientImage(4, 4))
	got := SSIM(p.Y, p.Y)
	if got < 0.999 {
		t.Fatalf("SSIM(identical, small) = %v, want ~1.0", got)
	}
}

func TestResizeLongEdgeDownsamplesOnly(t *testing.T) {
	p := fromNRGBA(gradientImage(200, 100))
	resized := ResizeLongEdge(p, 100)
	longEdge := resized.Width
	if resized.Height > longEdge {
		longEdge = resized.Height
	}
	if longEdge != 100 {
		t.Fatalf("long edge after resize = %d, want 100", longEdge)
	}

	unchanged := ResizeLongEdge(p, 500)
	if unchanged.Width != p.Width || unchanged.Height != p.Height {
		t.Fatalf("ResizeLongEdge should not upsample: got %dx%d", unchanged.Width, unchanged.Height)
	}
}

func TestCenterCropToMod(t *testing.T) {
	p := fromNRGBA(gradientImage(101, 99))
	cropped := CenterCropToMod(p, 16)
	if cropped.Width%16 != 0 || cropped.Height%16 != 0 {
		t.Fatalf("cropped dims %dx%d not multiples of 16", cropped.Width, cropped.Height)
	}
}

func TestJPEGRoundtripPreservesDimensions(t *testing.T) {
	p := fromNRGBA(gradientImage(48, 48))
	out, err := JPEGRoundtrip(p, 75)
	if err != nil {
		t.Fatalf("JPEGRoundtrip error: %v", err)
	}
	if out.Width != p.Width || out.Height != p.Height {
		t.Fatalf("dims changed: got %dx%d, want %dx%d", out.Width, out.Height, p.Width, p.Height)
	}
	psnr := PSNR(p.Y, out.Y)
	if psnr < 20 {
		t.Fatalf("PSNR after JPEG Q75 round trip = %v, want >= 20", psnr)
	}
}
