// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the textmify CLI. The root command
// converts every supported document in a folder to Markdown and can pack the
// results into word-limited files; subcommands manage models, re-run the
// packing step, and show the run history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/textmify/internal/combine"
	"github.com/pdiddy/textmify/internal/convert"
	"github.com/pdiddy/textmify/internal/logging"
	"github.com/pdiddy/textmify/internal/models"
	"github.com/pdiddy/textmify/internal/secrets"
	"github.com/pdiddy/textmify/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// log is configured in PersistentPreRunE from --verbose and --log-format.
	log = logging.Nop()

	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets = secrets.Secrets{}
)

// rootCmd converts a folder of documents.
var rootCmd = &cobra.Command{
	Use:   "textmify FOLDER",
	Short: "Convert a folder of documents to Markdown with docling",
	Long: `textmify converts every supported document in FOLDER (PDF, Office files,
HTML, images, and more) to Markdown using the docling conversion library.
Each document becomes one file in FOLDER/markdowns, or --output-dir.

Failed conversions are retried with an increasing delay and then skipped.
With --combine the Markdown files are packed into packed_N.md files that each
hold at most --max-words words.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runRoot,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(logging.Options{
			Level:   viper.GetString("log-level"),
			Format:  viper.GetString("log-format"),
			Verbose: viper.GetBool("verbose"),
			NoColor: !colorEnabled(),
		})

		s, err := secrets.Load(secrets.DefaultDir, log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			log.Debug().Strs("keys", s.Keys()).Msg("Loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./textmify.yaml or ~/.config/textmify/config.yaml)")
	pf.Bool("verbose", false, "enable verbose logging")
	pf.String("log-level", "info", "log level: debug, info, warn, or error")
	pf.String("log-format", "pretty", "log format: pretty or json")
	pf.Bool("no-color", false, "disable coloured output")
	pf.String("ca-cert", "", "CA certificate bundle for the converter (default: system bundle)")
	pf.String("artifacts-path", models.DefaultPath(), "path to the docling model artifacts directory")

	f := rootCmd.Flags()
	f.Bool("combine", false, "combine markdown files into packed files of at most --max-words words")
	f.Int("max-words", combine.DefaultMaxWords, "maximum words per combined file")
	f.String("output-dir", "", `output directory (default: "markdowns" inside FOLDER)`)
	f.Int("retries", convert.DefaultAttempts, "number of conversion attempts per file")
	f.Duration("retry-delay", convert.DefaultRetryDelay, "wait before the second attempt; doubles after each failure")
	f.Bool("no-ocr", false, "disable OCR for PDF files (faster conversion)")
	f.String("backend", string(types.BackendDocling), "conversion backend: docling, docling-serve, or markitdown")
	f.String("serve-url", "", "base URL of a docling-serve instance (docling-serve backend)")
	f.Duration("timeout", 0, "HTTP request timeout for the docling-serve backend (0 disables)")
	f.Bool("recursive", false, "also convert documents in subdirectories")
	f.StringSlice("exclude", nil, "glob pattern of files to skip (repeatable)")
	f.Bool("skip-existing", false, "skip documents unchanged since their last successful conversion")
	f.Bool("no-progress", false, "disable progress bars")

	// Every flag doubles as a config file key and a TEXTMIFY_ variable.
	_ = viper.BindPFlags(pf)
	_ = viper.BindPFlags(f)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("textmify")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "textmify"))
		}
	}

	viper.SetEnvPrefix("TEXTMIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// colorEnabled honours --no-color and the NO_COLOR convention.
func colorEnabled() bool {
	return !viper.GetBool("no-color") && os.Getenv("NO_COLOR") == ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
