package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/klyvo/iwm/verifier"
)

func newVerifyCmd(logger *zerolog.Logger) *cobra.Command {
	pf := &presetFlags{}
	var ownerSha string
	var mediaIDsCSV string

	cmd := &cobra.Command{
		Use:   "verify IMAGE",
		Short: "Try every owner/media-id combination against a candidate image (C9)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := imageConfig(pf, pf.presetName)
			if err != nil {
				return err
			}
			mediaIDs := splitCSV(mediaIDsCSV)
			res, err := verifier.Verify(args[0], ownerSha, mediaIDs, cfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exists=%v matched_media_id=%s similarity=%.4f ecc_ok=%v checked_media_ids=%d\n",
				res.Exists, res.MatchedMediaID, res.Similarity, res.EccOk, res.CheckedMediaIDs)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerSha, "owner", "", "64-hex owner identifier")
	cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&mediaIDsCSV, "media-ids", "", "comma-separated media-ids to try")
	cmd.MarkFlagRequired("media-ids")
	addPresetFlags(cmd, pf, false)
	return cmd
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
