package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shortontech/devprint/internal/fingerprint"
)

func newCompareCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare A.json B.json",
		Short: "Score the similarity of two saved fingerprints",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, err := readFingerprint(args[0])
			if err != nil {
				return err
			}
			fb, err := readFingerprint(args[1])
			if err != nil {
				return err
			}
			return writeJSONFile(cmd.OutOrStdout(), "", fingerprint.Compare(fa, fb))
		},
	}
}

func readFingerprint(path string) (fingerprint.DeviceFingerprint, error) {
	var fp fingerprint.DeviceFingerprint
	b, err := os.ReadFile(path)
	if err != nil {
		return fp, err
	}
	if err := json.Unmarshal(b, &fp); err != nil {
		return fp, fmt.Errorf("parse %s: %w", path, err)
	}
	return fp, nil
}
