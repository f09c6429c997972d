package cmd

import (
	"github.com/spf13/cobra"
)

var reverseCmd = &cobra.Command{
	Use:   "reverse",
	Short: "Reverse lookup operations",
}

var reverseIPCmd = &cobra.Command{
	Use:   "ip <address>",
	Short: "List domains sharing an IP address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.ReverseIP(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		return renderPayload("Reverse IP: "+args[0], payload)
	},
}

var reverseWhoisCmd = &cobra.Command{
	Use:   "whois <terms>",
	Short: "Search domains by WHOIS record fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.ReverseWhois(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		return renderPayload("Reverse WHOIS: "+args[0], payload)
	},
}

func init() {
	rootCmd.AddCommand(reverseCmd)
	reverseCmd.AddCommand(reverseIPCmd)
	reverseCmd.AddCommand(reverseWhoisCmd)
}
