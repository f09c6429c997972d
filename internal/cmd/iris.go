package cmd

import (
	"net/url"

	"github.com/spf13/cobra"
)

var irisCmd = &cobra.Command{
	Use:   "iris",
	Short: "Iris investigation operations",
}

var irisInvestigateCmd = &cobra.Command{
	Use:   "investigate <domain>",
	Short: "Run an Iris Investigate query for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.IrisInvestigate(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		return renderPayload("Iris Investigate: "+args[0], payload)
	},
}

var irisEnrichCmd = &cobra.Command{
	Use:   "enrich <domain>",
	Short: "Run an Iris Enrich query for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.IrisEnrich(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		return renderPayload("Iris Enrich: "+args[0], payload)
	},
}

var irisDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run an Iris Detect query",
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, err := cmd.Flags().GetString("pattern")
		if err != nil {
			return err
		}

		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		params := url.Values{}
		if pattern != "" {
			params.Set("pattern", pattern)
		}

		payload, err := c.IrisDetect(cmd.Context(), params)
		if err != nil {
			return err
		}
		return renderPayload("Iris Detect", payload)
	},
}

func init() {
	rootCmd.AddCommand(irisCmd)
	irisCmd.AddCommand(irisInvestigateCmd)
	irisCmd.AddCommand(irisEnrichCmd)
	irisCmd.AddCommand(irisDetectCmd)

	irisDetectCmd.Flags().String("pattern", "", "domain pattern to detect")
}
