package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/error-T-T/mathmistake/internal/config"
	"github.com/error-T-T/mathmistake/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mistake statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if p, _ := cmd.Flags().GetString("data"); p != "" {
			cfg.DataPath = p
		}

		st, err := store.Open(cfg.DataPath, slog.Default())
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		stats, err := st.Stats()
		if err != nil {
			return fmt.Errorf("compute stats: %w", err)
		}

		fmt.Printf("Total mistakes: %d\n", stats.TotalMistakes)
		fmt.Println("By type:")
		for t, n := range stats.MistakesByType {
			fmt.Printf("  %-15s %d\n", t, n)
		}
		fmt.Println("By difficulty:")
		for d, n := range stats.MistakesByDifficulty {
			fmt.Printf("  %-15s %d\n", d, n)
		}
		if len(stats.TopKnowledgeGaps) > 0 {
			fmt.Printf("Top knowledge gaps: %s\n", strings.Join(stats.TopKnowledgeGaps, ", "))
		}
		return nil
	},
}
