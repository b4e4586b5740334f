package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/pactverify/internal/config"
	cliErrors "github.com/ariel-frischer/pactverify/internal/errors"
	"github.com/ariel-frischer/pactverify/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pactverify configuration",
		Long: `Manage pactverify configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (PACTVERIFY_*, PACTVERIFY_PROVIDER__BASE_URL for nested keys)
  2. Project config (.pactverify/config.yml, or --config)
  3. User config (~/.config/pactverify/config.yml)
  4. Built-in defaults`,
		Example: `  # Show the effective configuration
  pactverify config show

  # Set a value in the project config
  pactverify config set provider.base_url http://localhost:8080

  # Create a commented starter config
  pactverify config init`,
	}
	cmd.GroupID = GroupConfiguration
	cmd.AddCommand(newConfigShowCmd(), newConfigKeysCmd(), newConfigSetCmd(), newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			red := configView(cfg.Redacted())

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return output.WriteJSON(cmd.OutOrStdout(), red)
			}
			data, err := yaml.Marshal(red)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}

// configView renders the configuration keyed by config key paths.
func configView(cfg *config.Configuration) map[string]interface{} {
	return map[string]interface{}{
		"provider": map[string]interface{}{
			"name":     cfg.Provider.Name,
			"base_url": cfg.Provider.BaseURL,
		},
		"consumer": map[string]interface{}{
			"name": cfg.Consumer.Name,
		},
		"source": map[string]interface{}{
			"file":     cfg.Source.File,
			"uri":      cfg.Source.URI,
			"username": cfg.Source.Username,
			"password": cfg.Source.Password,
			"token":    cfg.Source.Token,
		},
		"broker": map[string]interface{}{
			"url":      cfg.Broker.URL,
			"username": cfg.Broker.Username,
			"password": cfg.Broker.Password,
			"token":    cfg.Broker.Token,
			"tags":     append([]string{}, cfg.Broker.Tags...),
		},
		"provider_state_url": cfg.ProviderStateURL,
		"filter": map[string]interface{}{
			"description":    cfg.Filter.Description,
			"provider_state": cfg.Filter.ProviderState,
		},
		"log_level":           cfg.LogLevel,
		"output":              cfg.Output,
		"timeout":             cfg.Timeout.String(),
		"wait":                cfg.Wait.String(),
		"state_dir":           cfg.StateDir,
		"max_history_entries": cfg.MaxHistoryEntries,
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List all configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tTYPE\tDEFAULT\tDESCRIPTION")
			for _, key := range config.SortedKeys() {
				schema := config.KnownKeys[key]
				typ := schema.Type.String()
				if len(schema.AllowedValues) > 0 {
					typ = fmt.Sprintf("%s(%v)", typ, schema.AllowedValues)
				}
				fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", key, typ, schema.Default, schema.Description)
			}
			return tw.Flush()
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the project (or user) config",
		Example: `  pactverify config set consumer.name "Event UI"
  pactverify config set broker.tags main,prod
  pactverify config set log_level debug --user`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTargetPath(cmd)
			if err != nil {
				return err
			}
			parsed, err := config.SetValue(path, args[0], args[1])
			if err != nil {
				return cliErrors.Wrap(err, cliErrors.Configuration,
					"List valid keys with: pactverify config keys")
			}
			schema, _ := config.GetKeySchema(args[0])
			shown := parsed.Parsed
			if schema.Secret {
				shown = "***"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", args[0], shown, path)
			return nil
		},
	}
	cmd.Flags().Bool("user", false, "Write to the user config instead of the project config")
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented starter config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTargetPath(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return cliErrors.NewConfigError(
					fmt.Sprintf("config file already exists: %s", path),
					"Use --force to overwrite it",
				)
			}
			if err := writeFile(path, []byte(config.GetDefaultConfigTemplate())); err != nil {
				return cliErrors.FileNotWritable(path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("user", false, "Create the user config instead of the project config")
	cmd.Flags().Bool("force", false, "Overwrite an existing config")
	return cmd
}

// configTargetPath picks the file config set/init write to: --config, then
// --user, then the project config.
func configTargetPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	if user, _ := cmd.Flags().GetBool("user"); user {
		return config.UserConfigPath()
	}
	return config.ProjectConfigPath(), nil
}
