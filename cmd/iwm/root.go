package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/klyvo/iwm/preset"
)

func newRootCmd(logger *zerolog.Logger) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "iwm",
		Short: "Invisible media watermarking core",
		Long: "iwm embeds and extracts ownership claims in images and video " +
			"via block-DCT QIM, Reed-Solomon ECC, and a platform preset registry.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				*logger = logger.Level(zerolog.DebugLevel)
			} else {
				*logger = logger.Level(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newEmbedImageCmd(logger),
		newExtractImageCmd(logger),
		newEmbedVideoCmd(logger),
		newExtractVideoCmd(logger),
		newEccEncodeCmd(),
		newEccDecodeCmd(),
		newVerifyCmd(logger),
		newPresetsCmd(),
	)
	return root
}

// presetFlags bundles the preset name and the per-field overrides shared by
// every embed/extract subcommand (spec.md section 4.8, "merged on top of
// preset defaults").
type presetFlags struct {
	presetName  string
	qimStep     float64
	repetition  int
	parity      int
	useY        bool
	longEdge    int
	jpegQuality int
	targetFPS   float64
	crf         int
	x264Preset  string
	frameStep   int

	qimStepSet, repetitionSet, paritySet, useYSet bool
	longEdgeSet, jpegQualitySet                   bool
	targetFPSSet, crfSet, x264PresetSet           bool
	frameStepSet                                  bool
}

func addPresetFlags(cmd *cobra.Command, pf *presetFlags, includeVideo bool) {
	cmd.Flags().StringVar(&pf.presetName, "preset", "original", "named parameter bundle ("+presetNamesJoined()+")")
	cmd.Flags().Float64Var(&pf.qimStep, "qim-step", 0, "override QIM strength")
	cmd.Flags().IntVar(&pf.repetition, "repetition", 0, "override block repetition count")
	cmd.Flags().IntVar(&pf.parity, "parity", 0, "override Reed-Solomon parity bytes (0 disables ECC)")
	cmd.Flags().BoolVar(&pf.useY, "use-y", false, "override channel routing: embed on Y plane only")
	cmd.Flags().IntVar(&pf.longEdge, "long-edge", 0, "override resize long-edge target, in pixels")
	cmd.Flags().IntVar(&pf.jpegQuality, "jpeg-quality", 0, "override JPEG re-encode quality")
	if includeVideo {
		cmd.Flags().Float64Var(&pf.targetFPS, "target-fps", 0, "override target frame rate")
		cmd.Flags().IntVar(&pf.crf, "crf", 0, "override H.264 constant rate factor")
		cmd.Flags().StringVar(&pf.x264Preset, "x264-preset", "", "override libx264 speed preset")
		cmd.Flags().IntVar(&pf.frameStep, "frame-step", 0, "override embedding stride (every Nth frame)")
	}

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		pf.qimStepSet = cmd.Flags().Changed("qim-step")
		pf.repetitionSet = cmd.Flags().Changed("repetition")
		pf.paritySet = cmd.Flags().Changed("parity")
		pf.useYSet = cmd.Flags().Changed("use-y")
		pf.longEdgeSet = cmd.Flags().Changed("long-edge")
		pf.jpegQualitySet = cmd.Flags().Changed("jpeg-quality")
		if includeVideo {
			pf.targetFPSSet = cmd.Flags().Changed("target-fps")
			pf.crfSet = cmd.Flags().Changed("crf")
			pf.x264PresetSet = cmd.Flags().Changed("x264-preset")
			pf.frameStepSet = cmd.Flags().Changed("frame-step")
		}
	}
}

// resolve merges the flag-provided overrides on top of the named preset,
// falling back to the built-in baseline for anything left unset.
func (pf *presetFlags) resolve() (preset.Resolved, error) {
	overrides := preset.Params{}
	if pf.qimStepSet {
		v := pf.qimStep
		overrides.QimStep = &v
	}
	if pf.repetitionSet {
		v := pf.repetition
		overrides.Repetition = &v
	}
	if pf.paritySet {
		v := pf.parity
		overrides.Parity = &v
	}
	if pf.useYSet {
		v := pf.useY
		overrides.UseY = &v
	}
	if pf.longEdgeSet {
		v := pf.longEdge
		overrides.LongEdge = &v
	}
	if pf.jpegQualitySet {
		v := pf.jpegQuality
		overrides.JPEGQuality = &v
	}
	if pf.targetFPSSet {
		v := pf.targetFPS
		overrides.TargetFPS = &v
	}
	if pf.crfSet {
		v := pf.crf
		overrides.CRF = &v
	}
	if pf.x264PresetSet {
		v := pf.x264Preset
		overrides.X264Preset = &v
	}
	if pf.frameStepSet {
		v := pf.frameStep
		overrides.FrameStep = &v
	}
	return preset.Resolve(pf.presetName, overrides)
}

func presetNamesJoined() string {
	names := preset.Names()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the closed set of registered preset names",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range preset.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
