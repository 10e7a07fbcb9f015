// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/textmify/internal/certs"
	"github.com/pdiddy/textmify/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage docling model artifacts",
	Long: `Models checks for or pre-downloads the layout and OCR models docling uses,
so conversions do not fetch them on first use. Downloads honour --ca-cert.`,
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download docling models into --artifacts-path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("artifacts-path")

		bundle, err := certs.Resolve(viper.GetString("ca-cert"))
		if err != nil {
			return err
		}
		if bundle.Warning != "" {
			log.Warn().Msg(bundle.Warning)
		}

		log.Info().Str("path", path).Msg("Downloading models")
		if err := models.NewDownloader().Download(cmd.Context(), path, bundle.Env(), cmd.ErrOrStderr()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Models downloaded to %s\n", path)
		return nil
	},
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether model artifacts are present",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("artifacts-path")
		err := models.Check(path)
		switch {
		case err == nil:
			fmt.Fprintf(cmd.OutOrStdout(), "Model artifacts found at %s\n", path)
			return nil
		case errors.Is(err, models.ErrArtifactsMissing):
			fmt.Fprintf(cmd.OutOrStdout(), "Model artifacts missing at %s; run 'textmify models download'\n", path)
			return err
		default:
			return err
		}
	},
}

func init() {
	modelsCmd.AddCommand(modelsDownloadCmd, modelsCheckCmd)
	rootCmd.AddCommand(modelsCmd)
}
