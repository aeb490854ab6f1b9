package imagecodec

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klyvo/iwm/claim"
)

func writeGradientPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / (w - 1))
			u := uint8((y * 255) / (h - 1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: u, B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestEmbedExtractClaimLosslessRoundTrip(t *testing.T) {
	// spec.md section 8, scenario 1.
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeGradientPNG(t, src, 384, 384)

	cfg := Config{QimStep: 8, Repetition: 20, Parity: 24, UseY: true}
	text := "klyvo-demo"

	embedRes, err := EmbedClaim(src, out, text, cfg)
	if err != nil {
		t.Fatalf("EmbedClaim error: %v", err)
	}
	wantBitlen := (32 + 24) * 8
	if embedRes.PayloadBits != wantBitlen {
		t.Fatalf("PayloadBits = %d, want %d", embedRes.PayloadBits, wantBitlen)
	}

	extractRes, err := ExtractClaim(out, text, cfg)
	if err != nil {
		t.Fatalf("ExtractClaim error: %v", err)
	}
	if !extractRes.EccOk {
		t.Fatal("expected ecc_ok=true on lossless round trip")
	}
	if !extractRes.MatchTextHash {
		t.Fatal("expected match_text_hash=true on lossless round trip")
	}
	if extractRes.PayloadBitlen != wantBitlen {
		t.Fatalf("PayloadBitlen = %d, want %d", extractRes.PayloadBitlen, wantBitlen)
	}
}

func TestCapacityClampScenario(t *testing.T) {
	// spec.md section 8, scenario 3: 64x64 grayscale (64 blocks),
	// payload_bits=448, repetition=20 -> R=1, N=64, first 64 bits recovered.
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeGradientPNG(t, src, 64, 64)

	text := "owner:abc|media:def"
	payload, err := claim.Payload(text, 24) // 448 bits
	if err != nil {
		t.Fatalf("claim.Payload error: %v", err)
	}
	if len(payload) != 448 {
		t.Fatalf("payload length = %d, want 448", len(payload))
	}

	cfg := Config{QimStep: 10, Repetition: 20, UseY: true}
	embedRes, err := EmbedImage(src, out, payload, cfg)
	if err != nil {
		t.Fatalf("EmbedImage error: %v", err)
	}
	if embedRes.Repetition != 1 {
		t.Fatalf("effective repetition = %d, want 1", embedRes.Repetition)
	}

	extractRes, err := ExtractImage(out, 448, cfg)
	if err != nil {
		t.Fatalf("ExtractImage error: %v", err)
	}
	if extractRes.UsedRepetition != 1 {
		t.Fatalf("used repetition = %d, want 1", extractRes.UsedRepetition)
	}
	for i := 0; i < 64; i++ {
		if extractRes.RecoveredBits[i] != payload[i] {
			t.Fatalf("bit %d = %d, want %d", i, extractRes.RecoveredBits[i], payload[i])
		}
	}
	for i := 64; i < 448; i++ {
		if extractRes.RecoveredBits[i] != 0 {
			t.Fatalf("padding bit %d = %d, want 0", i, extractRes.RecoveredBits[i])
		}
	}
}

func TestChannelSymmetry(t *testing.T) {
	// spec.md section 8, "Channel symmetry": use_y=true on I must recover
	// the same message as use_y=false on I's Y plane.
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	outY := filepath.Join(dir, "out_y.png")
	outGray := filepath.Join(dir, "out_gray.png")
	writeGradientPNG(t, src, 128, 128)

	text := "owner:abc|media:def"
	cfgY := Config{QimStep: 12, Repetition: 8, Parity: 16, UseY: true}
	cfgGray := Config{QimStep: 12, Repetition: 8, Parity: 16, UseY: false}

	if _, err := EmbedClaim(src, outY, text, cfgY); err != nil {
		t.Fatalf("EmbedClaim (use_y) error: %v", err)
	}
	if _, err := EmbedClaim(src, outGray, text, cfgGray); err != nil {
		t.Fatalf("EmbedClaim (grayscale) error: %v", err)
	}

	resY, err := ExtractClaim(outY, text, cfgY)
	if err != nil {
		t.Fatalf("ExtractClaim (use_y) error: %v", err)
	}
	resGray, err := ExtractClaim(outGray, text, cfgGray)
	if err != nil {
		t.Fatalf("ExtractClaim (grayscale) error: %v", err)
	}

	if !resY.EccOk || !resGray.EccOk {
		t.Fatalf("expected both paths to decode: use_y ecc_ok=%v, grayscale ecc_ok=%v", resY.EccOk, resGray.EccOk)
	}
	if resY.RecoveredHex != resGray.RecoveredHex {
		t.Fatalf("recovered message differs: use_y=%s grayscale=%s", resY.RecoveredHex, resGray.RecoveredHex)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeGradientPNG(t, src, 64, 64)

	bad := Config{QimStep: 0, Repetition: 1, UseY: true}
	if _, err := EmbedImage(src, out, []int{1, 0, 1}, bad); err == nil {
		t.Fatal("expected error for non-positive qim_step")
	}
}
