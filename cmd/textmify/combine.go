// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/textmify/internal/combine"
	"github.com/pdiddy/textmify/pkg/types"
)

var combineCmd = &cobra.Command{
	Use:   "combine DIR",
	Short: "Pack existing Markdown files into word-limited files",
	Long: `Combine packs every Markdown file in DIR into packed_N.md files holding at
most --max-words words each, without converting anything. Packed files from
an earlier run are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runCombine,
}

func runCombine(cmd *cobra.Command, args []string) error {
	maxWords, _ := cmd.Flags().GetInt("max-words")
	if !cmd.Flags().Changed("max-words") {
		maxWords = viper.GetInt("max-words")
	}
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	cfg := types.CombineConfig{MaxWords: maxWords, Prefix: combine.DefaultPrefix}
	buckets, err := combineDir(args[0], cfg, !noProgress && !viper.GetBool("verbose"), log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Combined files created: %d\n", len(buckets))
	return nil
}

func init() {
	combineCmd.Flags().Int("max-words", combine.DefaultMaxWords, "maximum words per combined file")
	combineCmd.Flags().Bool("no-progress", false, "disable progress bars")

	rootCmd.AddCommand(combineCmd)
}
