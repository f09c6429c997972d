package cmd

import (
	"github.com/spf13/cobra"
)

var whoisCmd = &cobra.Command{
	Use:   "whois <domain>",
	Short: "WHOIS record operations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.Whois(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderPayload("WHOIS: "+args[0], payload)
	},
}

var whoisHistoryCmd = &cobra.Command{
	Use:   "history <domain>",
	Short: "Get historical WHOIS records for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.WhoisHistory(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		return renderPayload("WHOIS History: "+args[0], payload)
	},
}

var whoisParsedCmd = &cobra.Command{
	Use:   "parsed <domain>",
	Short: "Get the WHOIS record parsed into structured fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.ParsedWhois(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderPayload("Parsed WHOIS: "+args[0], payload)
	},
}

func init() {
	rootCmd.AddCommand(whoisCmd)
	whoisCmd.AddCommand(whoisHistoryCmd)
	whoisCmd.AddCommand(whoisParsedCmd)
}
