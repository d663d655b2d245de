package main

import (
	"errors"
	"fmt"

	"github.com/akolanti/ResumeRAG/internal/app"
	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/ingest"
	"github.com/akolanti/ResumeRAG/internal/rag/providers"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/indexFile"
	"github.com/akolanti/ResumeRAG/internal/session"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the resume and profile into a base index",
	Example: `  indexer build --resume me.pdf --profile about.txt
  indexer build --resume me.pdf --name "Roxy Story" --out ./base_index`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("resume", "", "resume file (pdf, docx, rtf, txt)")
	buildCmd.Flags().String("profile", "", "profile text kept as a single chunk")
	buildCmd.Flags().String("name", "", "display name for both documents")
	buildCmd.Flags().String("out", "", "output directory (defaults to the configured base index dir)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	resume, _ := cmd.Flags().GetString("resume")
	profile, _ := cmd.Flags().GetString("profile")
	name, _ := cmd.Flags().GetString("name")
	out, _ := cmd.Flags().GetString("out")

	var sources []session.BaseSource
	if resume != "" {
		sources = append(sources, session.BaseSource{Path: resume, Kind: commonModels.KindResume, DisplayName: name})
	}
	if profile != "" {
		sources = append(sources, session.BaseSource{Path: profile, Kind: commonModels.KindProfile, DisplayName: profileName(name)})
	}
	if len(sources) == 0 {
		return errors.New("nothing to index: pass --resume and/or --profile")
	}

	settings := config.Current()
	if out == "" {
		out = settings.Corpus.BaseIndexDir
	}

	ctx := cmd.Context()
	embedder := providers.NewEmbedder(ctx, settings.Embedding)
	ingestor := ingest.NewIngestor(providers.NewLLM(ctx, settings.LLM), app.IngestOptions(settings))

	docs, err := session.BuildBaseCorpus(ctx, ingestor, embedder, sources)
	if err != nil {
		return err
	}
	if err = indexFile.Save(out, embedder.ModelName(), docs); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	for _, d := range docs {
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %-8s %3d chunks  %s\n", d.Record.Id, d.Record.Kind, len(d.Record.Chunks), d.Record.DisplayName)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (model %s, dimension %d)\n", out, embedder.ModelName(), embedder.Dimension())
	return nil
}

func profileName(name string) string {
	if name == "" {
		return ""
	}
	return name + " (profile)"
}
