package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"noxcmd/internal/config"
	"noxcmd/internal/log"
	"noxcmd/internal/tui"
)

var (
	cfgFile  string
	leftDir  string
	rightDir string
	debug    bool
)

// NewRootCmd builds the root command. Running it starts the full-screen
// commander; everything else is configured through flags and the config
// file.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "noxcmd",
		Short: "A dual-pane terminal file manager with archive browsing",
		Long: `noxcmd is a keyboard-driven, dual-pane file manager.
ZIP, TAR and TAR.GZ archives open like directories: browse into them,
view and copy their entries, and copy files into ZIP archives in place.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if leftDir != "" {
				cfg.Panels.Left = leftDir
			}
			if rightDir != "" {
				cfg.Panels.Right = rightDir
			}
			setupLogging(cfg)

			model := tui.New(cfg)
			defer model.Close()
			prog := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := prog.Run(); err != nil {
				return fmt.Errorf("running ui: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/noxcmd/config.yaml)")
	rootCmd.Flags().StringVar(&leftDir, "left", "", "start directory of the left pane")
	rootCmd.Flags().StringVar(&rightDir, "right", "", "start directory of the right pane")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")

	rootCmd.AddCommand(NewConfigCmd())
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

// setupLogging routes the logger to the configured file. The TUI owns
// the terminal, so without a file the logger stays silent.
func setupLogging(cfg *config.Config) {
	if cfg.Log.File == "" {
		return
	}
	if err := log.SetFile(cfg.Log.File); err != nil {
		fmt.Println("warning:", err)
		return
	}
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log.SetLevel(level)
}

// NewConfigCmd writes the default config for editing.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
}
