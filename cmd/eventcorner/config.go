package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/eventcorner/internal/config"
	"github.com/harunnryd/eventcorner/internal/pathutil"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/config.yaml
var embeddedDefaultConfig []byte

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the resolved configuration",
	Long:  `Print the configuration after defaults, the config file, EVENTCORNER_* variables and flags are applied. API keys are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved := cfg
		if resolved == nil {
			var err error
			if resolved, err = config.Load(cmd); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(redactConfigSecrets(resolved))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long:  `Write the default configuration to $HOME/.eventcorner/config.yaml. An existing file is left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := pathutil.HomeDir()
		if err != nil {
			return err
		}
		configPath := filepath.Join(home, ".eventcorner", "config.yaml")
		out := cmd.OutOrStdout()

		switch _, err := os.Stat(configPath); {
		case err == nil:
			fmt.Fprintf(out, "Config already exists at %s (see 'eventcorner config view')\n", configPath)
			return nil
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to check %s: %w", configPath, err)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		body := strings.TrimSpace(string(embeddedDefaultConfig)) + "\n"
		if err := atomic.WriteFile(configPath, strings.NewReader(body)); err != nil {
			return fmt.Errorf("failed to write %s: %w", configPath, err)
		}

		fmt.Fprintf(out, "✓ Initialized config at %s\n", configPath)
		fmt.Fprintln(out, "Set backend.base_url to your Event Corner API, then run 'eventcorner login'.")
		fmt.Fprintln(out, "'eventcorner serve' uses Ollama by default; OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY enable the other providers.")
		return nil
	},
}

// redactConfigSecrets returns a copy of in with every API key masked.
func redactConfigSecrets(in *config.Config) *config.Config {
	if in == nil {
		return nil
	}
	out := *in
	out.Models.Registry = make([]config.ModelRegistry, 0, len(in.Models.Registry))
	for _, entry := range in.Models.Registry {
		entry.APIKey = maskSecret(entry.APIKey)
		out.Models.Registry = append(out.Models.Registry, entry)
	}
	return &out
}

// maskSecret keeps the first and last two characters of secrets longer
// than four characters.
func maskSecret(secret string) string {
	switch n := len(secret); {
	case n == 0:
		return ""
	case n <= 4:
		return "****"
	default:
		return secret[:2] + strings.Repeat("*", n-4) + secret[n-2:]
	}
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
