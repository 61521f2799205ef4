package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"EmbeddedAssets/internal/cache"
	"EmbeddedAssets/internal/config"
	"EmbeddedAssets/internal/core/embeds"
	"EmbeddedAssets/internal/core/extract"
	"EmbeddedAssets/internal/core/render"
	"EmbeddedAssets/internal/core/safety"
)

// Global flags
var (
	flagConfig string
	flagParams []string
	flagJSON   bool
)

// cfg holds the loaded configuration.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "embedctl",
	Short: "Inspect embedded-asset metadata for a URL",
	Long: `embedctl runs the metadata extractor against a URL and prints the
resulting embedded asset, or one of its accessor views.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", os.Getenv("EMBEDS_CONFIG"), "Path to a TOML config file")
	rootCmd.PersistentFlags().StringArrayVarP(&flagParams, "param", "p", nil, "Query parameter key=value (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print JSON output")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(iframeSrcCmd)
	rootCmd.AddCommand(videoURLCmd)
	rootCmd.AddCommand(videoIDCmd)
	rootCmd.AddCommand(htmlCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(0)
	return nil
}

// previewAsset extracts and validates rawURL. Nothing is persisted.
func previewAsset(ctx context.Context, rawURL string) (*embeds.EmbeddedAsset, error) {
	opts := []extract.Option{
		extract.WithCache(cache.NewMemoryCache(cfg.CacheTTL(), time.Minute)),
		extract.WithTimeout(cfg.FetchTimeout()),
		extract.WithUserAgent(cfg.Extract.UserAgent),
		extract.WithAcceptLanguage(cfg.Extract.AcceptLanguage),
	}
	if cfg.Extract.ProvidersFile != "" {
		f, err := os.Open(cfg.Extract.ProvidersFile)
		if err != nil {
			return nil, fmt.Errorf("opening providers file: %w", err)
		}
		defer f.Close()
		opts = append(opts, extract.WithProviders(f))
	}

	extractor, err := extract.New(opts...)
	if err != nil {
		return nil, err
	}

	svc, err := embeds.NewService(previewOnly{}, extractor,
		embeds.WithValidator(embeds.NewValidator(cfg.Validation.MaxStringLength)))
	if err != nil {
		return nil, err
	}
	return svc.Preview(ctx, rawURL)
}

func delegates() embeds.Delegates {
	evaluator := safety.NewEvaluator(cfg.Safety.Whitelist)
	return embeds.Delegates{Safety: evaluator, Renderer: render.NewRenderer(evaluator)}
}

// printValue writes a single accessor result. An empty value prints as
// null in JSON mode and as nothing otherwise.
func printValue(w io.Writer, key, value string) error {
	if flagJSON {
		var v interface{}
		if value != "" {
			v = value
		}
		return writeJSON(w, map[string]interface{}{key: v})
	}
	if value != "" {
		_, err := fmt.Fprintln(w, value)
		return err
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// previewOnly satisfies embeds.Repository for commands that never store.
type previewOnly struct{}

var errReadOnly = errors.New("embedctl does not store embeds")

func (previewOnly) Upsert(context.Context, *embeds.EmbeddedAsset, string) (*embeds.StoredEmbed, error) {
	return nil, errReadOnly
}

func (previewOnly) GetByID(context.Context, string) (*embeds.StoredEmbed, error) {
	return nil, embeds.ErrNotFound
}

func (previewOnly) GetByURL(context.Context, string) (*embeds.StoredEmbed, error) {
	return nil, embeds.ErrNotFound
}
