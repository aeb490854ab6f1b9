// Package ffmpeg wraps the external ffmpeg/ffprobe command-line tools the
// video pipeline (C7) depends on for pre-normalization, frame
// extraction/muxing, and stream probing.
//
// The exec.CommandContext + timeout + stderr-capture-on-failure shape
// mirrors ManuGH-xg2g's probeStreams (internal/api/recordings/remux.go),
// which shells out to ffprobe the same way and folds stderr into the
// returned error instead of discarding it.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/klyvo/iwm/wmerr"
)

// DefaultTimeout is the wall-clock timeout applied to external
// encoder/decoder invocations when none is configured (spec.md section 5,
// "Cancellation and timeouts").
const DefaultTimeout = 180 * time.Second

// Runner invokes ffmpeg/ffprobe with a bounded timeout, wrapping non-zero
// exits and timeouts as wmerr.ToolFailure with captured stderr.
type Runner struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// NewRunner returns a Runner with default binary names and timeout; pass
// timeout <= 0 to use DefaultTimeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", Timeout: timeout}
}

// StreamInfo is the subset of ffprobe's stream metadata the pipeline needs.
type StreamInfo struct {
	Width, Height int
	FPS           float64
	HasAudio      bool
}

type probeFormat struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
}

// Probe runs ffprobe against path and returns its video/audio stream
// summary.
func (r *Runner) Probe(ctx context.Context, path string) (StreamInfo, error) {
	args := []string{"-v", "quiet", "-print_format", "json", "-show_streams", path}
	out, _, err := r.run(ctx, r.FFprobePath, args)
	if err != nil {
		return StreamInfo{}, err
	}

	var parsed probeFormat
	if err := json.Unmarshal(out, &parsed); err != nil {
		return StreamInfo{}, wmerr.Wrap(wmerr.ToolFailure, "parse ffprobe output", err)
	}

	info := StreamInfo{}
	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			info.Width, info.Height = s.Width, s.Height
			info.FPS = parseFrameRate(s.RFrameRate)
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}

func parseFrameRate(rate string) float64 {
	var num, den float64
	if _, err := fmt.Sscanf(rate, "%f/%f", &num, &den); err == nil && den != 0 {
		return num / den
	}
	return 0
}

// Run invokes ffmpeg with the given arguments, returning wmerr.ToolFailure
// (with captured stderr) on non-zero exit or timeout.
func (r *Runner) Run(ctx context.Context, args []string) error {
	_, _, err := r.run(ctx, r.FFmpegPath, args)
	return err
}

func (r *Runner) run(ctx context.Context, bin string, args []string) (stdout, stderr []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, nil, wmerr.Wrap(wmerr.ToolFailure, fmt.Sprintf("%s timed out after %s: %s", bin, r.Timeout, errBuf.String()), ctx.Err())
	}
	if runErr != nil {
		msg := fmt.Sprintf("%s failed: %s", bin, errBuf.String())
		return nil, nil, wmerr.Wrap(wmerr.ToolFailure, msg, runErr)
	}
	return outBuf.Bytes(), errBuf.Bytes(), nil
}
