package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bmuenzenmeyer/buildwatch/internal/config"
	"github.com/bmuenzenmeyer/buildwatch/internal/history"
)

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List builds watched before, newest first",
	Long:  `Print the local history of watched builds with their final status.`,
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 20, "maximum number of builds to list")
}

func runRecent(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("watch history is disabled in the configuration")
	}

	h, err := history.New(cfg.History.ResolvePath())
	if err != nil {
		return err
	}
	defer h.Close()

	records, err := h.Recent(cmd.Context(), recentLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("nothing watched yet")
		return nil
	}

	fmt.Printf("%-24s %-7s %-9s %-16s %-9s %s\n", "REPO", "BUILD", "STATUS", "BRANCH", "DURATION", "WATCHED")
	for _, r := range records {
		fmt.Printf("%-24s #%-6d %-9s %-16s %-9s %s\n",
			r.Repo, r.Number, r.Status, truncate(r.Branch, 16),
			shortDuration(r.Duration), r.WatchedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
