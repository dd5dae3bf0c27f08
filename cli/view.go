package main

import (
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/media-metadata-guard/core"
	"github.com/ankit-chaubey/media-metadata-guard/core/inspect"
)

func newViewCmd(a *app) *cobra.Command {
	var asJSON, asYAML bool
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "List the metadata of a file",
		Long: `view prints every metadata field mediaguard can read from a file:
EXIF and GPS fields for images, tags and ID3 frames for audio. The file
is never modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := inspect.View(osfs.Default, args[0], a.cfg.Assert.MaxMetadataBytes)
			if m == nil {
				return err
			}
			if err != nil {
				a.log.Warn("metadata listing is incomplete", "file", args[0], "error", err)
			}

			p := &core.Printer{Mode: core.OutputText, Writer: cmd.OutOrStdout()}
			switch {
			case asJSON:
				p.Mode = core.OutputJSON
			case asYAML:
				p.Mode = core.OutputYAML
			}
			return p.PrintMetadata(m)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	return cmd
}
