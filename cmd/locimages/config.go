package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"locimages/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage loc-images configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (LOCIMAGES_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.locimages.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - The power-of-two page size requirement`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".locimages.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	exampleConfig := `# loc-images configuration file
#
# Every option can also be set with an environment variable prefixed
# with LOCIMAGES_, for example LOCIMAGES_RESULTS_PER_PAGE=64.

api:
  # Minimum spacing between requests. This is also the first backoff
  # delay after a transient failure. The API allows 80 requests per
  # minute before handing out an hour-long ban, so the default keeps a
  # crawl just under that.
  request_interval: 750ms

  # Ceiling on the exponential backoff between retries.
  max_backoff: 4096s

  # Results requested per page. Must be a power of two so the crawler
  # can halve it cleanly when the server cuts off large responses.
  results_per_page: 128

  # Timeout for a single HTTP request.
  request_timeout: 30s

  # Maximum retry attempts per page. 0 retries until the request
  # succeeds or fails fatally.
  max_retries: 0

output:
  # Emit aria2c option lines (out=, dir=) after each URL.
  aria_format: true

  # Group downloads into a directory per source collection.
  group_by_collection: true

  # Root directory written into dir= lines.
  root_directory: ""

  # Write the manifest to this file instead of stdout.
  manifest_file: ""

filter:
  # blocklist skips the listed formats; allowlist keeps only them.
  mode: blocklist
  blocked_formats:
    - collection
    - web page
  allowed_formats: []

logging:
  # debug, info, warn, or error. Logs always go to stderr.
  level: info
  # Optional log file path.
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created configuration file: %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Configuration is valid")
	return nil
}
