package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/voxely/naturalvoice/pkg/voices"
)

var (
	// Global flags
	cfgFile string
	region  string
	key     string
	edge    bool
	verbose bool

	// Global configuration
	globalConfig *Config
)

// Config holds the CLI defaults loaded from the YAML config file. Flags
// override any value set here.
type Config struct {
	Region       string `yaml:"region"`
	Key          string `yaml:"key"`
	Voice        string `yaml:"voice"`
	OutputFormat string `yaml:"output_format"`
	Edge         bool   `yaml:"edge"`
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "naturalvoice",
	Short: "Streaming text-to-speech CLI",
	Long: `naturalvoice - A command line interface for cloud speech synthesis.

Synthesizes text over the streaming websocket protocol and saves the decoded
audio as WAV. Two voice catalogs are supported:
  - Azure regional endpoint (needs --region and --key)
  - Free consumer endpoint used by Edge read-aloud (--edge, no credentials)

Examples:
  # List the free voices
  naturalvoice --edge voices

  # Synthesize with a free voice
  naturalvoice --edge say --voice en-US-AvaNeural -o hello.wav "Hello there"

  # Synthesize against an Azure region
  naturalvoice --region westus --key $KEY say --voice en-US-AvaNeural -o hello.wav "Hello there"
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.naturalvoice/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "Azure speech region, e.g. westus")
	rootCmd.PersistentFlags().StringVar(&key, "key", "", "Azure subscription key")
	rootCmd.PersistentFlags().BoolVar(&edge, "edge", false, "use the free consumer voice catalog")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(voicesCmd)
}

func initConfig() {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
	globalConfig = cfg
}

// loadConfig reads the YAML config file. A missing default file is not an
// error; an explicitly named file must exist.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return &Config{}, nil
		}
		path = filepath.Join(home, ".naturalvoice", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// effective merges the config file with command-line flags, flags winning.
func effective() *Config {
	cfg := &Config{}
	if globalConfig != nil {
		*cfg = *globalConfig
	}
	if region != "" {
		cfg.Region = region
	}
	if key != "" {
		cfg.Key = key
	}
	if edge {
		cfg.Edge = true
	}
	return cfg
}

// catalog resolves the voice catalog for the effective configuration.
func catalog(cfg *Config) (*voices.Catalog, error) {
	if cfg.Edge {
		return voices.EdgeCatalog(), nil
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("no endpoint configured: use --edge, or --region with --key")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("--key is required with --region")
	}
	return voices.AzureCatalog(cfg.Region, cfg.Key), nil
}
