package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/splash/api"
	"github.com/agentic-research/splash/internal/assets"
	"github.com/agentic-research/splash/internal/manifest"
	"github.com/agentic-research/splash/internal/pipeline"
)

// inspection is what `splash inspect` prints.
type inspection struct {
	UsesSplash  bool            `json:"uses_splash"`
	Splash      api.Splash      `json:"splash"`
	Color       [3]float64      `json:"color_rgb"`
	ContentMode string          `json:"content_mode"`
	Images      []assets.Output `json:"images,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [manifest]",
	Short: "Print the launch screen settings a manifest resolves to",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "app.json"
		if len(args) == 1 {
			path = args[0]
		}
		m, err := manifest.Load(path)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}

		platform := api.Platform(cfg.Platform)
		s := m.Splash(platform)
		params := pipeline.ResolveParams(s, logger)
		out := inspection{
			UsesSplash:  m.UsesSplash(platform),
			Splash:      s,
			Color:       [3]float64{params.Color.R, params.Color.G, params.Color.B},
			ContentMode: string(params.Mode),
			Images:      assets.Plan(s.ImageURL, s.TabletImageURL),
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
