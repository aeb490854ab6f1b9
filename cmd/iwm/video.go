package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/klyvo/iwm/imagecodec"
	"github.com/klyvo/iwm/videopipeline"
)

func videoConfig(pf *presetFlags, lossless bool, maxFrames int, timeout time.Duration, logger *zerolog.Logger) (videopipeline.Config, error) {
	resolved, err := pf.resolve()
	if err != nil {
		return videopipeline.Config{}, err
	}
	return videopipeline.Config{
		Config: imagecodec.Config{
			QimStep:     resolved.QimStep,
			Repetition:  resolved.Repetition,
			Parity:      resolved.Parity,
			UseY:        resolved.UseY,
			Preset:      pf.presetName,
			LongEdge:    resolved.LongEdge,
			JPEGQuality: resolved.JPEGQuality,
		},
		LongEdge:   resolved.LongEdge,
		TargetFPS:  resolved.TargetFPS,
		CRF:        resolved.CRF,
		X264Preset: resolved.X264Preset,
		FrameStep:  resolved.FrameStep,
		Lossless:   lossless,
		MaxFrames:  maxFrames,
		Timeout:    timeout,
		Logger:     logger,
	}, nil
}

func newEmbedVideoCmd(logger *zerolog.Logger) *cobra.Command {
	pf := &presetFlags{}
	var claimText string
	var lossless bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "embed-video SRC DST",
		Short: "Pre-normalize, embed, and re-encode a video's ownership claim (C7)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := videoConfig(pf, lossless, 0, timeout, logger)
			if err != nil {
				return err
			}
			res, err := videopipeline.EmbedVideo(context.Background(), args[0], args[1], claimText, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (frames_total=%d frames_marked=%d)\n", res.OutputPath, res.FramesTotal, res.FramesMarked)
			return nil
		},
	}
	cmd.Flags().StringVar(&claimText, "claim", "", "canonical claim string (owner:<hex>|media:<hex>)")
	cmd.MarkFlagRequired("claim")
	cmd.Flags().BoolVar(&lossless, "lossless", false, "re-encode crf=0/yuv444p/veryslow/g=1 for ground-truth tests")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "external tool timeout (0 uses the internal default)")
	addPresetFlags(cmd, pf, true)
	return cmd
}

func newExtractVideoCmd(logger *zerolog.Logger) *cobra.Command {
	pf := &presetFlags{}
	var claimText string
	var maxFrames int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "extract-video SRC",
		Short: "Extract and verify an ownership claim from a video with cross-frame majority vote (C7)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := videoConfig(pf, false, maxFrames, timeout, logger)
			if err != nil {
				return err
			}
			res, err := videopipeline.ExtractVideo(context.Background(), args[0], claimText, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "frames_used=%d match_text_hash=%v ecc_ok=%v similarity=%.4f recovered_hex=%s\n",
				res.FramesUsed, res.MatchTextHash, res.EccOk, res.Similarity, res.RecoveredHex)
			return nil
		},
	}
	cmd.Flags().StringVar(&claimText, "claim", "", "canonical claim string to verify against")
	cmd.MarkFlagRequired("claim")
	cmd.Flags().IntVar(&maxFrames, "max-frames", videopipeline.DefaultMaxFrames, "cap on frames decoded and voted over")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "external tool timeout (0 uses the internal default)")
	addPresetFlags(cmd, pf, true)
	return cmd
}
