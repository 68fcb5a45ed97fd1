package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mentionlens/mentionlens/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mentionlens configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file with the built-in defaults",
	Long: `Write a starter config.yaml populated with the built-in defaults.
Without a path argument the file is written to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if !configInitForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
		}

		data, err := yaml.Marshal(defaultConfigDocument())
		if err != nil {
			return fmt.Errorf("marshal default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

// defaultConfigDocument renders the built-in defaults with durations as
// human-readable strings rather than nanosecond integers.
func defaultConfigDocument() map[string]any {
	def := config.Default()
	return map[string]any{
		"search": map[string]any{
			"base_url":      def.Search.BaseURL,
			"index":         def.Search.Index,
			"timeout":       def.Search.Timeout.String(),
			"initial_delay": def.Search.InitialDelay.String(),
			"max_attempts":  def.Search.MaxAttempts,
			"max_delay":     "0s",
			"relax_backoff": def.Search.RelaxBackoff,
		},
		"report": map[string]any{
			"document_base_url": def.Report.DocumentBaseURL,
			"logo_path":         def.Report.LogoPath,
			"top_mentions":      def.Report.TopMentions,
		},
		"server": map[string]any{
			"host":             def.Server.Host,
			"port":             def.Server.Port,
			"read_timeout":     def.Server.ReadTimeout.String(),
			"write_timeout":    def.Server.WriteTimeout.String(),
			"idle_timeout":     def.Server.IdleTimeout.String(),
			"shutdown_timeout": def.Server.ShutdownTimeout.String(),
			"bearer_token":     "",
			"allowed_origins":  []string{},
			"max_upload_bytes": def.Server.MaxUploadBytes,
		},
		"logging": map[string]any{
			"level": def.Logging.Level,
		},
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
}
