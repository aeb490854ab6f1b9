// Package videopipeline implements the video embed/extract orchestration
// (C7): pre-normalize, demux to lossless PNG frames (plus an audio
// side-file when present), per-frame embed on a stride, re-encode, and a
// cross-frame majority-vote extractor.
//
// All external encode/decode/probe calls go through internal/ffmpeg; frame
// and audio files live under a single scoped temporary directory that is
// always removed via defer, regardless of which stage fails (spec.md
// section 4.7, "Resource discipline").
package videopipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/klyvo/iwm/claim"
	"github.com/klyvo/iwm/imagecodec"
	"github.com/klyvo/iwm/internal/ffmpeg"
	"github.com/klyvo/iwm/rs"
	"github.com/klyvo/iwm/wmerr"
)

// DefaultMaxFrames bounds how many frames extract_video decodes and votes
// over (spec.md section 4.7, "Extraction").
const DefaultMaxFrames = 120

// Config bundles the video-level parameters on top of the image embed
// Config shared with every frame.
type Config struct {
	imagecodec.Config

	LongEdge   int
	TargetFPS  float64
	CRF        int
	X264Preset string
	FrameStep  int
	Lossless   bool
	MaxFrames  int
	Timeout    time.Duration

	// Logger receives stride and resource-lifecycle events; nil means
	// silent (spec.md section "Logging", ambient stack).
	Logger *zerolog.Logger
}

func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return zerolog.Nop()
}

func (c Config) frameStep() int {
	if c.FrameStep <= 0 {
		return 1
	}
	return c.FrameStep
}

func (c Config) maxFrames() int {
	if c.MaxFrames <= 0 {
		return DefaultMaxFrames
	}
	return c.MaxFrames
}

// EmbedResult reports the output path and a summary of the marked frames.
type EmbedResult struct {
	OutputPath   string
	FramesTotal  int
	FramesMarked int
}

// EmbedVideo pre-normalizes inPath to the given preset parameters, embeds
// the claim-string payload into every FrameStep-th frame, and re-encodes to
// outPath.
func EmbedVideo(ctx context.Context, inPath, outPath, text string, cfg Config) (EmbedResult, error) {
	if err := cfg.Config.Validate(); err != nil {
		return EmbedResult{}, err
	}

	log := cfg.logger()

	tempDir, err := os.MkdirTemp("", "iwm-embed-*")
	if err != nil {
		return EmbedResult{}, wmerr.Wrap(wmerr.ToolFailure, "create temp dir", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Warn().Err(err).Str("dir", tempDir).Msg("failed to release temp dir")
		}
	}()

	runner := ffmpeg.NewRunner(cfg.Timeout)

	srcInfo, err := runner.Probe(ctx, inPath)
	if err != nil {
		return EmbedResult{}, err
	}

	normalizedPath := filepath.Join(tempDir, "normalized.mp4")
	if err := preNormalize(ctx, runner, inPath, normalizedPath, cfg, srcInfo.HasAudio); err != nil {
		return EmbedResult{}, err
	}

	framesDir := filepath.Join(tempDir, "frames")
	if err := os.Mkdir(framesDir, 0o755); err != nil {
		return EmbedResult{}, wmerr.Wrap(wmerr.ToolFailure, "create frames dir", err)
	}
	if err := decodeFrames(ctx, runner, normalizedPath, framesDir); err != nil {
		return EmbedResult{}, err
	}

	var audioPath string
	normInfo, err := runner.Probe(ctx, normalizedPath)
	if err != nil {
		return EmbedResult{}, err
	}
	if normInfo.HasAudio {
		audioPath = filepath.Join(tempDir, "audio.aac")
		if err := extractAudio(ctx, runner, normalizedPath, audioPath); err != nil {
			return EmbedResult{}, err
		}
	}

	frames, err := listFrames(framesDir)
	if err != nil {
		return EmbedResult{}, err
	}
	if len(frames) == 0 {
		return EmbedResult{}, wmerr.New(wmerr.UnreadableMedia, "video has zero frames")
	}

	payload, err := claim.Payload(text, cfg.Parity)
	if err != nil {
		return EmbedResult{}, err
	}

	step := cfg.frameStep()
	marked := 0
	for i, frame := range frames {
		if i%step != 0 {
			continue
		}
		if _, err := imagecodec.EmbedImage(frame, frame, payload, cfg.Config); err != nil {
			return EmbedResult{}, err
		}
		marked++
	}
	log.Info().Int("frames_total", len(frames)).Int("frames_marked", marked).Int("frame_step", step).Msg("embedding stride complete")

	if err := reencode(ctx, runner, framesDir, audioPath, outPath, cfg); err != nil {
		return EmbedResult{}, err
	}

	return EmbedResult{OutputPath: outPath, FramesTotal: len(frames), FramesMarked: marked}, nil
}

// ExtractResult reports the video extractor's findings (spec.md section 6).
type ExtractResult struct {
	FramesUsed    int
	Similarity    float64
	EccOk         bool
	MatchTextHash bool
	RecoveredHex  string
}

// ExtractVideo decodes inPath's frames at native cadence, keeps every
// FrameStep-th frame up to MaxFrames, extracts each, and takes a
// per-position majority vote before ECC-decoding.
func ExtractVideo(ctx context.Context, inPath, text string, cfg Config) (ExtractResult, error) {
	if err := cfg.Config.Validate(); err != nil {
		return ExtractResult{}, err
	}

	log := cfg.logger()

	tempDir, err := os.MkdirTemp("", "iwm-extract-*")
	if err != nil {
		return ExtractResult{}, wmerr.Wrap(wmerr.ToolFailure, "create temp dir", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Warn().Err(err).Str("dir", tempDir).Msg("failed to release temp dir")
		}
	}()

	runner := ffmpeg.NewRunner(cfg.Timeout)

	framesDir := filepath.Join(tempDir, "frames")
	if err := os.Mkdir(framesDir, 0o755); err != nil {
		return ExtractResult{}, wmerr.Wrap(wmerr.ToolFailure, "create frames dir", err)
	}
	if err := decodeFrames(ctx, runner, inPath, framesDir); err != nil {
		return ExtractResult{}, err
	}

	all, err := listFrames(framesDir)
	if err != nil {
		return ExtractResult{}, err
	}
	if len(all) == 0 {
		return ExtractResult{}, wmerr.New(wmerr.UnreadableMedia, "video has zero frames")
	}

	step := cfg.frameStep()
	maxFrames := cfg.maxFrames()
	var kept []string
	for i := 0; i < len(all) && len(kept) < maxFrames; i += step {
		kept = append(kept, all[i])
	}

	expectedBits, err := claim.Payload(text, cfg.Parity)
	if err != nil {
		return ExtractResult{}, err
	}
	bitlen := len(expectedBits)

	var perFrame [][]int
	for _, frame := range kept {
		res, err := imagecodec.ExtractImage(frame, bitlen, cfg.Config)
		if err != nil {
			continue
		}
		perFrame = append(perFrame, res.RecoveredBits)
	}
	if len(perFrame) == 0 {
		return ExtractResult{}, wmerr.New(wmerr.UnreadableMedia, "no frames could be decoded")
	}
	log.Info().Int("frames_kept", len(kept)).Int("frames_decoded", len(perFrame)).Int("max_frames", maxFrames).Msg("per-frame extraction complete")

	finalBits := majorityAcrossFrames(perFrame, bitlen)
	recoveredBytes := claim.BitsToBytes(finalBits)
	expectedHash := claim.Hash(text)

	out := ExtractResult{
		FramesUsed: len(perFrame),
		Similarity: bitSimilarity(finalBits, expectedBits),
	}

	if cfg.Parity > 0 {
		msg, ok, decErr := rs.Decode(recoveredBytes, cfg.Parity)
		if decErr != nil {
			return out, wmerr.Wrap(wmerr.ToolFailure, "rs decode", decErr)
		}
		out.EccOk = ok
		if ok {
			out.MatchTextHash = equalBytes(msg, expectedHash[:])
			out.RecoveredHex = hexEncode(msg)
		}
		return out, nil
	}

	out.MatchTextHash = equalBytes(recoveredBytes, expectedHash[:])
	out.RecoveredHex = hexEncode(recoveredBytes)
	return out, nil
}

func majorityAcrossFrames(perFrame [][]int, bitlen int) []int {
	out := make([]int, bitlen)
	for p := 0; p < bitlen; p++ {
		ones := 0
		for _, frame := range perFrame {
			if p < len(frame) && frame[p] == 1 {
				ones++
			}
		}
		if ones*2 > len(perFrame) {
			out[p] = 1
		}
	}
	return out
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

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0xf]
	}
	return string(out)
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wmerr.Wrap(wmerr.ToolFailure, "list frame directory", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

// preNormalize transcodes inPath once to the preset's long_edge, target
// fps, yuv420p, GOP=2*fps, H.264 main profile level 4.1, AAC 96kbps audio
// (when present), +faststart (spec.md section 4.7, "Pre-normalization").
func preNormalize(ctx context.Context, runner *ffmpeg.Runner, inPath, outPath string, cfg Config, hasAudio bool) error {
	fps := cfg.TargetFPS
	if fps <= 0 {
		fps = 30
	}
	gop := int(2 * fps)

	args := []string{"-y", "-i", inPath}
	if cfg.LongEdge > 0 {
		args = append(args, "-vf", scaleFilter(cfg.LongEdge))
	}
	args = append(args,
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-pix_fmt", "yuv420p",
		"-g", strconv.Itoa(gop),
		"-c:v", "libx264",
		"-profile:v", "main",
		"-level", "4.1",
	)
	if hasAudio {
		args = append(args, "-c:a", "aac", "-b:a", "96k")
	} else {
		args = append(args, "-an")
	}
	args = append(args, "-movflags", "+faststart", outPath)

	return runner.Run(ctx, args)
}

// scaleFilter builds an ffmpeg scale expression that downsamples so the
// long edge equals long, preserving aspect ratio.
func scaleFilter(long int) string {
	return fmt.Sprintf("scale='if(gt(iw,ih),%d,-2)':'if(gt(iw,ih),-2,%d)'", long, long)
}

func decodeFrames(ctx context.Context, runner *ffmpeg.Runner, inPath, framesDir string) error {
	pattern := filepath.Join(framesDir, "frame_%06d.png")
	return runner.Run(ctx, []string{"-y", "-i", inPath, pattern})
}

func extractAudio(ctx context.Context, runner *ffmpeg.Runner, inPath, audioPath string) error {
	return runner.Run(ctx, []string{"-y", "-i", inPath, "-vn", "-acodec", "copy", audioPath})
}

func reencode(ctx context.Context, runner *ffmpeg.Runner, framesDir, audioPath, outPath string, cfg Config) error {
	fps := cfg.TargetFPS
	if fps <= 0 {
		fps = 30
	}
	pixFmt := "yuv420p"
	crf := cfg.CRF
	x264Preset := cfg.X264Preset
	if x264Preset == "" {
		x264Preset = "medium"
	}
	gop := int(fps)

	if cfg.Lossless {
		pixFmt = "yuv444p"
		crf = 0
		x264Preset = "veryslow"
		gop = 1
	}

	args := []string{
		"-y",
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", filepath.Join(framesDir, "frame_%06d.png"),
	}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", x264Preset,
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", pixFmt,
		"-g", strconv.Itoa(gop),
	)
	if audioPath != "" {
		args = append(args, "-c:a", "aac", "-b:a", "96k", "-shortest")
	}
	args = append(args, "-movflags", "+faststart", outPath)

	return runner.Run(ctx, args)
}
