package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osintworks/domaintools-client/internal/output"
	"github.com/osintworks/domaintools-client/pkg/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run profile lookups for multiple domains concurrently",
	Long: `Read domains from a file (one per line, '#' starts a comment) and fetch
their profiles concurrently. Results are reported per domain in input
order; one domain failing does not stop the others.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 0, "concurrent lookups (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.API.Concurrency
	}

	domains, err := readDomains(args[0])
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		return errors.New("no domains found in batch file")
	}

	format, err := resolveFormat()
	if err != nil {
		return err
	}

	c, err := buildClient()
	if err != nil {
		return err
	}
	defer c.Close()

	items, err := batch.DomainProfiles(cmd.Context(), c, domains, concurrency)
	if err != nil {
		return fmt.Errorf("batch aborted: %w", err)
	}

	rendered, err := output.FormatBatch(format, items)
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	return nil
}

// readDomains loads one domain per line, skipping blanks and comments.
func readDomains(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	return domains, nil
}
