package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"talkpress/internal/assemble"
	"talkpress/internal/config"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var attachAll bool

	cmd := &cobra.Command{
		Use:         "build FILE",
		Short:       "Render a record JSON file (or - for stdin) as Markdown",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if source := strings.TrimSpace(args[0]); source == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(source)
			}
			if err != nil {
				return fmt.Errorf("read record: %w", err)
			}

			if !attachAll {
				attachAll = ctx.configuredAttachAll()
			}
			markdown, err := assemble.FromJSON(data, assemble.Options{AttachAllSamples: attachAll})
			if err != nil {
				return err
			}
			if markdown == "" {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), markdown)
			return err
		},
	}

	cmd.Flags().BoolVar(&attachAll, "attach-all-samples", false, "Emit every code sample in a transcript gap, not just the first (default from config)")
	return cmd
}

// configuredAttachAll reads pipeline.attach_all_samples without creating any
// directories. build works offline on any record, so an unreadable or invalid
// config falls back to first-sample mode instead of failing.
func (c *commandContext) configuredAttachAll() bool {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return false
	}
	return cfg.Pipeline.AttachAllSamples
}
