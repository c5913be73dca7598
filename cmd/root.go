package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mathmistake",
	Short: "Math mistake notebook backend",
	Long:  "MathMistake — records student math mistakes and asks an AI service to classify errors, suggest remediation, and generate practice problems.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("data", "", "Path to the CSV data file (overrides MATHMISTAKE_DATA)")
	rootCmd.PersistentFlags().Int("port", 0, "Listen port (overrides MATHMISTAKE_PORT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}
