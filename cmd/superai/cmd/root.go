// Package cmd содержит CLI-команды сервиса superai.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "superai",
	Short: "SuperAI supervisor proxy service",
	Long: `SuperAI backs the AI supervisor dashboard with two proxy functions:
  - supervisor-diagnose: LLM diagnosis of agents and incidents
  - relevance-agents: trigger agents and read their history on the automation platform`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./configs/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(feedCmd)
}
