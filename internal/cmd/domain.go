package cmd

import (
	"github.com/spf13/cobra"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Domain profile operations",
}

var domainProfileCmd = &cobra.Command{
	Use:   "profile <domain>",
	Short: "Get comprehensive profile information for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}
		defer c.Close()

		payload, err := c.DomainProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderPayload("Domain Profile: "+args[0], payload)
	},
}

func init() {
	rootCmd.AddCommand(domainCmd)
	domainCmd.AddCommand(domainProfileCmd)
}
