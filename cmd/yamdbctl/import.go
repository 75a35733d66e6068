package main

import (
	"context"
	"os"

	"yamdb/proj/internal/importer"

	"github.com/spf13/cobra"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load CSV fixtures",
	Long: `Load users.csv, category.csv, genre.csv, titles.csv, genre_title.csv,
review.csv and comments.csv from --dir in one transaction.

Rows keep their ids; sequences are moved past the loaded ids afterwards.

Examples:
  yamdbctl import --dir static/data`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		db, log, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		loaded, err := importer.New(log, db).Run(ctx, os.DirFS(importDir))
		if err != nil {
			return err
		}
		var total int64
		for _, n := range loaded {
			total += n
		}
		cmd.Printf("imported %d rows from %s\n", total, importDir)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "static/data", "directory with the CSV fixtures")
	rootCmd.AddCommand(importCmd)
}
