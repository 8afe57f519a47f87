/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config string
	Debug  bool

	BaseURL         string
	Username        string
	APIToken        string
	CredentialsFile string
	LogFile         string
	MermaidCLI      string

	// ConfigActual is the config path after env/default resolution.
	ConfigActual string

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "confluence-publish",
	Short: "Publish a local markdown document to a Confluence page",
	Long: `
Write your docs in Markdown, keep them in git, and push them to Confluence when they're ready.
Mermaid diagrams are rendered to images, local images become page attachments, and the page's
version counter is handled for you.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// You can bind cobra and viper in a few locations, but PersistentPreRunE on the root command works well
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("confluence-publish: failed to initialise config: %w", err)
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/confluence-publish.yaml, respects CONFLUENCE_PUBLISH_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringVar(&BaseURL, "base-url", "", "base URL of your wiki, e.g. https://ORG.atlassian.net/wiki")
	rootCmd.PersistentFlags().StringVar(&Username, "username", "", "your Atlassian username")
	rootCmd.PersistentFlags().StringVar(&APIToken, "api-token", "", "your Atlassian API token")
	rootCmd.PersistentFlags().StringVar(&CredentialsFile, "credentials-file", "credentials.json", "location of the JSON credentials file")
	rootCmd.PersistentFlags().StringVar(&LogFile, "log-file", "", "log file location (default: timestamped file under logs/)")
	rootCmd.PersistentFlags().StringVar(&MermaidCLI, "mermaid-cli", "", "mermaid CLI executable (default: mmdc on your PATH)")
}

func initializeConfig(cmd *cobra.Command) error {
	explicit := Config != ""
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("CONFLUENCE_PUBLISH_CONFIG")
		if envConfig != "" {
			Config = envConfig
			explicit = true
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/confluence-publish.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("confluence-publish: unable to expand homedir: %w", err)
	}
	ConfigActual = config

	if _, err := os.Stat(ConfigActual); errors.Is(err, os.ErrNotExist) {
		if !explicit {
			// No config file at the default location; flags will have to do.
			return nil
		}
		fmt.Printf("Couldn't read config file %s, does it exist?  Override with --config.\n", ConfigActual)
		return fmt.Errorf("confluence-publish: specified config file does not exist: %w", err)
	}

	yamlFile, err := os.ReadFile(ConfigActual)
	if err != nil {
		return fmt.Errorf("confluence-publish: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a flag we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("confluence-publish: issue parsing config file: %w", err)
	}

	// Bind the current command's flags to the parsed config
	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("confluence-publish: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	SaveCredentials *bool `yaml:"save-credentials"`

	BaseURL         string `yaml:"base-url"`
	Username        string `yaml:"username"`
	CredentialsFile string `yaml:"credentials-file"`
	LogFile         string `yaml:"log-file"`
	MermaidCLI      string `yaml:"mermaid-cli"`
	Space           string `yaml:"space"`
	ParentID        string `yaml:"parent-id"`
}

// Bind each cobra flag to its associated config file entry, unless the flag
// was given explicitly on the command line.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("confluence-publish: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen if you're running
			// e.g. `config show` which has no `space` flag but your YAML file does define one...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				// err, this is crappy, but i know YamlConfig only uses pointers for bools.....
				b, ok := field.Value().(*bool)
				if !ok {
					return fmt.Errorf("confluence-publish: found unrecognised field: %+v", field)
				}
				if b != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%v", *b))
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("confluence-publish: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("confluence-publish: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Flags are only available after (or inside, presumably) the .Execute() thing.
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("confluence-publish: execution error: %w", err)
	}

	return nil
}
