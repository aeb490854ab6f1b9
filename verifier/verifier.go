// Package verifier implements the preset-aware verifier (C9): given a
// candidate image, an owner hash, and a set of known media-ids, it tries
// both claim-string forms per media-id and reports the first one whose
// extracted message matches.
package verifier

import (
	"github.com/rs/zerolog"

	"github.com/klyvo/iwm/claim"
	"github.com/klyvo/iwm/imagecodec"
	"github.com/klyvo/iwm/wmerr"
)

// Result reports the verifier's findings (spec.md section 4.9).
type Result struct {
	Exists          bool
	MatchedMediaID  string // 0x-prefixed hex form
	Similarity      float64
	EccOk           bool
	CheckedMediaIDs int
}

// Verify tries, for each of mediaIDs, both claim-string forms against
// imagePath, returning the first one whose extracted message matches
// SHA-256(candidate) (and, when ECC is enabled, whose ECC decode
// succeeded). A nil logger means silent.
func Verify(imagePath, ownerSha string, mediaIDs []string, cfg imagecodec.Config, logger *zerolog.Logger) (Result, error) {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}

	if err := claim.ValidateOwnerSha(ownerSha); err != nil {
		return Result{}, err
	}

	checked := 0
	for _, mediaID := range mediaIDs {
		checked++
		for _, text := range claim.CandidateStrings(ownerSha, mediaID) {
			res, err := imagecodec.ExtractClaim(imagePath, text, cfg)
			if err != nil {
				if wmerr.Is(err, wmerr.EccUndecodable) {
					log.Debug().Str("media_id", mediaID).Msg("candidate ecc undecodable, continuing")
					continue
				}
				return Result{}, err
			}
			log.Debug().Str("media_id", mediaID).Bool("match_text_hash", res.MatchTextHash).Bool("ecc_ok", res.EccOk).Msg("verifier candidate attempt")
			if res.MatchTextHash && (cfg.Parity <= 0 || res.EccOk) {
				return Result{
					Exists:          true,
					MatchedMediaID:  "0x" + claim.NormalizeHex(mediaID),
					Similarity:      res.Similarity,
					EccOk:           res.EccOk,
					CheckedMediaIDs: checked,
				}, nil
			}
		}
	}
	log.Info().Int("checked_media_ids", checked).Msg("verifier exhausted candidates without a match")
	return Result{Exists: false, CheckedMediaIDs: checked}, nil
}
