package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/indexFile"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Print the manifest of a base index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.Current().Corpus.BaseIndexDir
		if len(args) == 1 {
			dir = args[0]
		}
		m, err := indexFile.ReadManifest(dir)
		if err != nil {
			return fmt.Errorf("read %s: %w", dir, err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "model\t%s\n", m.EmbeddingModel)
		fmt.Fprintf(w, "dimension\t%d\n", m.Dimension)
		fmt.Fprintf(w, "built\t%s\n\n", m.BuiltAt.Format("2006-01-02 15:04:05Z07:00"))
		fmt.Fprintln(w, "ID\tKIND\tCHUNKS\tNAME\tSOURCE")
		for _, d := range m.Documents {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", d.Id, d.Kind, len(d.Chunks), d.DisplayName, d.SourceLabel)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
