package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"EmbeddedAssets/internal/core/embeds"
)

var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Extract and print the embedded asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := previewAsset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), asset.ToSerializable())
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Title:    %s\n", asset.Title)
		fmt.Fprintf(out, "URL:      %s\n", asset.URL)
		if asset.Type != "" {
			fmt.Fprintf(out, "Type:     %s\n", asset.Type)
		}
		if asset.ProviderName != "" {
			fmt.Fprintf(out, "Provider: %s\n", asset.ProviderName)
		}
		if asset.Image != "" {
			fmt.Fprintf(out, "Image:    %s\n", asset.Image)
		}
		fmt.Fprintf(out, "Safe:     %t\n", delegates().IsSafe(asset))
		return nil
	},
}

var iframeSrcCmd = &cobra.Command{
	Use:   "iframe-src <url>",
	Short: "Print the iframe source with --param values merged in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := previewAsset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		src, err := asset.IframeSrc(flagParams)
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), "src", src)
	},
}

var videoURLCmd = &cobra.Command{
	Use:   "video-url <url>",
	Short: "Print the video source with --param values appended",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := previewAsset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		u, err := asset.VideoURL(flagParams)
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), "url", u)
	},
}

var videoIDCmd = &cobra.Command{
	Use:   "video-id <url>",
	Short: "Print the YouTube or Vimeo video ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := previewAsset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		id, err := asset.VideoID()
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), "videoId", id)
	},
}

var htmlCmd = &cobra.Command{
	Use:   "html <url>",
	Short: "Render the display markup for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset, err := previewAsset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out, err := delegates().HTML(asset)
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), "html", string(out))
	},
}

// Compile-time check.
var _ embeds.Repository = previewOnly{}
