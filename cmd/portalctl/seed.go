package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/config"
	"github.com/EmpoweredVote/news-portal/internal/content"
	"github.com/EmpoweredVote/news-portal/internal/db"
	"github.com/EmpoweredVote/news-portal/internal/seeds"
	"github.com/EmpoweredVote/news-portal/internal/webhooks"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		dryRun        bool
		revalidateURL string
	)
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load categories, tags, articles and related links from YAML",
		Long: `Load seed content. Rows that already exist (matched by slug) are skipped,
so the command can be re-run after editing the file.

Related-article links are only ever written here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := seeds.Load(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d categories, %d tags, %d articles\n",
					args[0], len(file.Categories), len(file.Tags), len(file.Articles))
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if revalidateURL != "" && cfg.RevalidateSecret == "" {
				return errors.New("--revalidate-url needs REVALIDATE_SECRET")
			}
			conn, err := db.Connect(cfg)
			if err != nil {
				return err
			}
			if err := migrate(conn); err != nil {
				return err
			}
			rep, err := seeds.Seed(cmd.Context(), content.NewRepository(conn), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories, %d tags, %d articles, %d related links (%d skipped)\n",
				rep.Categories, rep.Tags, rep.Articles, rep.Related, rep.Skipped)

			if revalidateURL == "" {
				return nil
			}
			client := &http.Client{Timeout: 10 * time.Second}
			err = webhooks.Send(cmd.Context(), client, revalidateURL, cfg.RevalidateSecret, webhooks.Request{
				Paths:    []string{"/", "/categories", "/tags"},
				Prefixes: []string{"/articles", "/categories/"},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "server cache revalidated")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file only; no database writes")
	cmd.Flags().StringVar(&revalidateURL, "revalidate-url", "", "POST a signed revalidation to this /hooks/revalidate URL afterwards")
	return cmd
}
