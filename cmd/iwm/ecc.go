package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klyvo/iwm/claim"
	"github.com/klyvo/iwm/rs"
	"github.com/klyvo/iwm/wmerr"
)

func newEccEncodeCmd() *cobra.Command {
	var parity int

	cmd := &cobra.Command{
		Use:   "ecc-encode MSG_HEX",
		Short: "Encode a 32-byte hex message into a Reed-Solomon codeword (C5)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := hex.DecodeString(args[0])
			if err != nil {
				return wmerr.New(wmerr.InvalidInput, "msg must be hex-encoded: "+err.Error())
			}
			if len(msg) != claim.MessageSize {
				return wmerr.New(wmerr.InvalidInput, fmt.Sprintf("msg must be %d bytes, got %d", claim.MessageSize, len(msg)))
			}
			codeword, err := rs.Encode(msg, parity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(codeword))
			return nil
		},
	}
	cmd.Flags().IntVar(&parity, "parity", rs.MinParity, "parity bytes to append")
	return cmd
}

func newEccDecodeCmd() *cobra.Command {
	var parity int

	cmd := &cobra.Command{
		Use:   "ecc-decode CODEWORD_HEX",
		Short: "Decode a Reed-Solomon codeword, correcting up to floor(P/2) byte errors (C5)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codeword, err := hex.DecodeString(args[0])
			if err != nil {
				return wmerr.New(wmerr.InvalidInput, "codeword must be hex-encoded: "+err.Error())
			}
			msg, ok, err := rs.Decode(codeword, parity)
			if err != nil {
				return err
			}
			if !ok {
				return wmerr.New(wmerr.EccUndecodable, "byte-error count exceeds floor(parity/2)")
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(msg))
			return nil
		},
	}
	cmd.Flags().IntVar(&parity, "parity", rs.MinParity, "parity bytes appended on encode")
	return cmd
}
