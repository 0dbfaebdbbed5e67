package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmuenzenmeyer/buildwatch/internal/client"
	"github.com/bmuenzenmeyer/buildwatch/internal/config"
	"github.com/bmuenzenmeyer/buildwatch/internal/logging"
)

var buildsJSON bool

var buildsCmd = &cobra.Command{
	Use:   "builds <owner>/<repo>",
	Short: "List recent builds for a repository",
	Long:  `Fetch the recent builds of a repository and print them, without starting the UI.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runBuilds,
}

func init() {
	buildsCmd.Flags().BoolVar(&buildsJSON, "json", false, "print builds as JSON and exit")
}

func runBuilds(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	owner, name, err := client.SplitRepo(args[0])
	if err != nil {
		return err
	}

	if cfg.Server == "" {
		return fmt.Errorf("no server configured (use --server, BUILDWATCH_SERVER, or server: in %s)", config.File())
	}

	api, err := client.New(cfg.Server, cfg.Token, logging.Nop())
	if err != nil {
		return err
	}

	builds, err := api.BuildList(cmd.Context(), owner, name)
	if err != nil {
		return err
	}

	if buildsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}

	if len(builds) == 0 {
		fmt.Println("no builds")
		return nil
	}

	now := time.Now()
	fmt.Printf("%-7s %-9s %-18s %-10s %-9s %s\n", "BUILD", "STATUS", "BRANCH", "COMMIT", "ELAPSED", "MESSAGE")
	for _, b := range builds {
		elapsed := "-"
		if b.Started > 0 {
			elapsed = shortDuration(buildDuration(&b, now))
		}
		fmt.Printf("#%-6d %-9s %-18s %-10s %-9s %s\n",
			b.Number, b.Status, truncate(b.Branch, 18), b.ShortCommit(), elapsed, firstLine(b.Message))
	}
	return nil
}
