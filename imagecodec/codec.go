// Package imagecodec composes the pixel I/O, block-DCT, QIM, and
// repetition layers into the image embed/extract operation (C6), plus a
// claim-string convenience that also drives the Reed-Solomon ECC layer and
// the SHA-256 comparison spec.md section 4.6 describes.
package imagecodec

import (
	"bytes"
	"encoding/hex"

	"github.com/klyvo/iwm/blockdct"
	"github.com/klyvo/iwm/claim"
	"github.com/klyvo/iwm/pixio"
	"github.com/klyvo/iwm/qim"
	"github.com/klyvo/iwm/repetition"
	"github.com/klyvo/iwm/rs"
	"github.com/klyvo/iwm/wmerr"
)

// coeffRow, coeffCol is the fixed mid-frequency coefficient (3, 4) modulated
// per block (spec.md section 3, "Embed configuration").
const (
	coeffRow = 3
	coeffCol = 4
)

// Config bundles the embed/extract parameters that must agree between the
// two sides of a round trip (spec.md section 3, "Embed configuration" and
// "Preset").
type Config struct {
	QimStep    float64
	Repetition int
	Parity     int // 0 disables ECC
	UseY       bool

	// Metadata-only fields, reported in EmbedResult but not consumed by the
	// embed/extract algorithm itself.
	Preset      string
	LongEdge    int
	JPEGQuality int
}

// Validate checks the fields the embed/extract algorithm itself depends on.
func (c Config) Validate() error {
	if c.QimStep <= 0 {
		return wmerr.New(wmerr.InvalidInput, "qim_step must be positive")
	}
	if c.Repetition <= 0 {
		return wmerr.New(wmerr.InvalidInput, "repetition must be positive")
	}
	if c.Parity != 0 && (c.Parity < rs.MinParity || c.Parity > rs.MaxParity) {
		return wmerr.New(wmerr.InvalidInput, "parity out of range")
	}
	return nil
}

// EmbedResult reports the headers spec.md section 6 attaches to an embed
// call's output.
type EmbedResult struct {
	PSNRY, SSIMY   float64
	QimStep        float64
	Repetition     int
	Parity         int
	UseY           bool
	UseECC         bool
	Preset         string
	LongEdge       int
	JPEGQuality    int
	PayloadBits    int
}

// EmbedImage embeds payloadBits (already-derived bits, MSB first) into
// inPath's Y plane and writes the result to outPath.
func EmbedImage(inPath, outPath string, payloadBits []int, cfg Config) (EmbedResult, error) {
	if err := cfg.Validate(); err != nil {
		return EmbedResult{}, err
	}
	if len(payloadBits) == 0 {
		return EmbedResult{}, wmerr.New(wmerr.InvalidInput, "payload_bits must be non-empty")
	}

	img, err := pixio.Load(inPath)
	if err != nil {
		return EmbedResult{}, err
	}

	grid := blockdct.Pad(img.Y)
	blocks := grid.Blocks()
	if blocks == 0 {
		return EmbedResult{}, wmerr.New(wmerr.CapacityExceeded, "image has no 8x8 blocks to embed into")
	}

	spread := repetition.NewSpread(payloadBits, blocks, cfg.Repetition)
	for i := 0; i < blocks; i++ {
		slot, ok := spread.SlotForBlock(i)
		if !ok {
			continue
		}
		coeffs := blockdct.Forward(grid.BlockAt(i))
		coeffs[coeffRow][coeffCol] = qim.EmbedBit(coeffs[coeffRow][coeffCol], cfg.QimStep, spread.Bits[slot])
		grid.SetBlockAt(i, blockdct.Inverse(coeffs))
	}

	newY := grid.Unpad()
	psnr := pixio.PSNR(img.Y, newY)
	ssim := pixio.SSIM(img.Y, newY)

	out := outputPlanar(img, newY, cfg.UseY)
	if err := pixio.Save(out, outPath); err != nil {
		return EmbedResult{}, err
	}

	return EmbedResult{
		PSNRY:       psnr,
		SSIMY:       ssim,
		QimStep:     cfg.QimStep,
		Repetition:  spread.R,
		Parity:      cfg.Parity,
		UseY:        cfg.UseY,
		UseECC:      cfg.Parity > 0,
		Preset:      cfg.Preset,
		LongEdge:    cfg.LongEdge,
		JPEGQuality: cfg.JPEGQuality,
		PayloadBits: len(payloadBits),
	}, nil
}

// outputPlanar builds the image to save: with use_y, the modified
// luminance recombines with the original (unchanged) chroma; without
// use_y, the modified plane becomes a standalone grayscale image (R=G=B),
// so both paths decode the identical Y values back out (spec.md section 8,
// "Channel symmetry").
func outputPlanar(img *pixio.Planar, newY [][]float64, useY bool) *pixio.Planar {
	if useY {
		return &pixio.Planar{Width: img.Width, Height: img.Height, Y: newY, Cb: img.Cb, Cr: img.Cr}
	}
	neutral := make([][]float64, img.Height)
	for y := range neutral {
		row := make([]float64, img.Width)
		for x := range row {
			row[x] = 128
		}
		neutral[y] = row
	}
	return &pixio.Planar{Width: img.Width, Height: img.Height, Y: newY, Cb: neutral, Cr: neutral}
}

// ExtractResult reports the fields spec.md section 6 attaches to an
// extract call's output, independent of any claim-string interpretation.
type ExtractResult struct {
	PayloadBitlen  int
	RecoveredBits  []int
	UsedRepetition int
}

// ExtractImage recovers payloadBitlen bits from inPath's Y plane.
func ExtractImage(inPath string, payloadBitlen int, cfg Config) (ExtractResult, error) {
	if err := cfg.Validate(); err != nil {
		return ExtractResult{}, err
	}
	if payloadBitlen <= 0 {
		return ExtractResult{}, wmerr.New(wmerr.InvalidInput, "payload_bitlen must be positive")
	}

	img, err := pixio.Load(inPath)
	if err != nil {
		return ExtractResult{}, err
	}

	grid := blockdct.Pad(img.Y)
	blocks := grid.Blocks()
	if blocks == 0 {
		return ExtractResult{}, wmerr.New(wmerr.CapacityExceeded, "image has no 8x8 blocks to extract from")
	}

	votes := repetition.NewVotes(blocks, payloadBitlen, cfg.Repetition)
	for i := 0; i < blocks; i++ {
		coeffs := blockdct.Forward(grid.BlockAt(i))
		bit, _ := qim.GuessBit(coeffs[coeffRow][coeffCol], cfg.QimStep)
		votes.Add(i, bit)
	}

	return ExtractResult{
		PayloadBitlen:  payloadBitlen,
		RecoveredBits:  votes.Majority(payloadBitlen),
		UsedRepetition: votes.R(),
	}, nil
}

// ClaimResult reports everything a preset-aware verifier needs from one
// extraction attempt against a candidate claim string.
type ClaimResult struct {
	ExtractResult
	Similarity    float64
	EccOk         bool
	MatchTextHash bool
	RecoveredHex  string
}

// EmbedClaim derives the payload from text (spec.md section 4.6, "Payload
// derivation") and embeds it.
func EmbedClaim(inPath, outPath, text string, cfg Config) (EmbedResult, error) {
	bits, err := claim.Payload(text, cfg.Parity)
	if err != nil {
		return EmbedResult{}, err
	}
	return EmbedImage(inPath, outPath, bits, cfg)
}

// ExtractClaim extracts the payload and compares it against the claim
// string text, reporting ECC status, SHA-256 match, and bit-level
// similarity against the expected codeword.
func ExtractClaim(inPath, text string, cfg Config) (ClaimResult, error) {
	expectedBits, err := claim.Payload(text, cfg.Parity)
	if err != nil {
		return ClaimResult{}, err
	}

	res, err := ExtractImage(inPath, len(expectedBits), cfg)
	if err != nil {
		return ClaimResult{}, err
	}

	out := ClaimResult{
		ExtractResult: res,
		Similarity:    bitSimilarity(res.RecoveredBits, expectedBits),
	}

	recoveredBytes := claim.BitsToBytes(res.RecoveredBits)
	expectedHash := claim.Hash(text)

	if cfg.Parity > 0 {
		msg, ok, decErr := rs.Decode(recoveredBytes, cfg.Parity)
		if decErr != nil {
			return out, wmerr.Wrap(wmerr.ToolFailure, "rs decode", decErr)
		}
		out.EccOk = ok
		if ok {
			out.MatchTextHash = bytes.Equal(msg, expectedHash[:])
			out.RecoveredHex = hex.EncodeToString(msg)
		}
		return out, nil
	}

	out.MatchTextHash = bytes.Equal(recoveredBytes, expectedHash[:])
	out.RecoveredHex = hex.EncodeToString(recoveredBytes)
	return out, nil
}

func bitSimilarity(got, want []int) float64 {
	if len(want) == 0 {
		return 1.0
	}
	n := len(got)
	if len(want) < n {
		n = len(want)
	}
	matches := 0
	for i := 0; i < n; i++ {
		if got[i] == want[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(want))
}
