package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

type Options struct {
	ChunkFloor         int
	ChunkCeiling       int
	ChunkOverlap       int
	MetadataMaxChars   int
	ExtractTemperature float64
}

func DefaultOptions() Options {
	return Options{
		ChunkFloor:         config.DefaultChunkFloor,
		ChunkCeiling:       config.DefaultChunkCeiling,
		ChunkOverlap:       config.DefaultChunkOverlap,
		MetadataMaxChars:   config.MetadataMaxInputChars,
		ExtractTemperature: config.ExtractTemperature,
	}
}

// Ingestor turns raw text into a Document Record. It keeps no state between
// calls. The provider may be nil, in which case validity falls back to the
// heuristic and metadata stays empty.
type Ingestor struct {
	llm    llm.Provider
	opts   Options
	logger *logger_i.Logger
}

func NewIngestor(provider llm.Provider, opts Options) *Ingestor {
	return &Ingestor{
		llm:    provider,
		opts:   opts,
		logger: logger_i.NewLogger("Document Ingestion"),
	}
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	nameSplitter = regexp.MustCompile(`[_\-.]+`)
)

// Ingest builds the record for an uploaded document. Invalid documents are
// returned with Validity.Valid false and no metadata.
func (i *Ingestor) Ingest(ctx context.Context, rawText, sourceLabel string) (commonModels.DocumentRecord, error) {
	log := i.logger.WithTrace(ctx).With("source", sourceLabel)

	if strings.TrimSpace(rawText) == "" {
		return commonModels.DocumentRecord{}, commonModels.ErrEmptyDocument
	}

	record := commonModels.DocumentRecord{
		Id:          proposeId(sourceLabel, rawText),
		SourceLabel: sourceLabel,
		Kind:        commonModels.KindResume,
		RawText:     rawText,
		Chunks:      chunkText(rawText, i.opts.ChunkFloor, i.opts.ChunkCeiling, i.opts.ChunkOverlap),
	}

	record.Validity = i.assessValidity(ctx, rawText)
	if record.Validity.Valid {
		record.Metadata = i.ExtractMetadata(ctx, rawText)
	}
	if err := ctx.Err(); err != nil {
		return commonModels.DocumentRecord{}, err
	}
	record.DisplayName = DisplayName(record.Metadata, sourceLabel)

	log.Info("document analysed", "chunks", len(record.Chunks), "valid", record.Validity.Valid,
		"reason", record.Validity.Reason, "metadataEmpty", record.Metadata.IsEmpty())
	return record, nil
}

// IngestProfile builds a pinned profile record. The whole text is one chunk
// and no analysis calls are made.
func (i *Ingestor) IngestProfile(rawText, sourceLabel, displayName string) (commonModels.DocumentRecord, error) {
	if strings.TrimSpace(rawText) == "" {
		return commonModels.DocumentRecord{}, commonModels.ErrEmptyDocument
	}
	whole, ok := trimSpan(rawText, span{0, len(rawText)})
	if !ok {
		return commonModels.DocumentRecord{}, commonModels.ErrEmptyDocument
	}
	if displayName == "" {
		displayName = DisplayName(commonModels.Metadata{}, sourceLabel)
	}
	return commonModels.DocumentRecord{
		Id:          proposeId(sourceLabel, rawText),
		SourceLabel: sourceLabel,
		DisplayName: displayName,
		Kind:        commonModels.KindProfile,
		Pinned:      true,
		RawText:     rawText,
		Chunks:      []commonModels.Chunk{{Index: 0, Text: rawText[whole.start:whole.end], Start: whole.start, End: whole.end}},
		Validity:    commonModels.Validity{Valid: true, Reason: commonModels.ReasonPinned},
	}, nil
}

// IngestPinnedResume is Ingest without the validity gate, for the base corpus.
func (i *Ingestor) IngestPinnedResume(ctx context.Context, rawText, sourceLabel string) (commonModels.DocumentRecord, error) {
	if strings.TrimSpace(rawText) == "" {
		return commonModels.DocumentRecord{}, commonModels.ErrEmptyDocument
	}
	record := commonModels.DocumentRecord{
		Id:          proposeId(sourceLabel, rawText),
		SourceLabel: sourceLabel,
		Kind:        commonModels.KindResume,
		Pinned:      true,
		RawText:     rawText,
		Chunks:      chunkText(rawText, i.opts.ChunkFloor, i.opts.ChunkCeiling, i.opts.ChunkOverlap),
		Validity:    commonModels.Validity{Valid: true, Reason: commonModels.ReasonPinned},
		Metadata:    i.ExtractMetadata(ctx, rawText),
	}
	record.DisplayName = DisplayName(record.Metadata, sourceLabel)
	return record, ctx.Err()
}

// DisplayName prefers the extracted name and falls back to the file name.
func DisplayName(meta commonModels.Metadata, sourceLabel string) string {
	if meta.Name != "" {
		return meta.Name
	}
	base := strings.TrimSuffix(filepath.Base(sourceLabel), filepath.Ext(sourceLabel))
	name := strings.Join(strings.Fields(nameSplitter.ReplaceAllString(base, " ")), " ")
	if name == "" || name == "." {
		return "Document"
	}
	return name
}

// proposeId derives a deterministic id from the label and content. The
// retrieval manager makes it unique within a corpus.
func proposeId(sourceLabel, rawText string) string {
	base := strings.TrimSuffix(filepath.Base(sourceLabel), filepath.Ext(sourceLabel))
	slug := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(base), "-"), "-")
	if slug == "" {
		slug = "document"
	}
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	sum := sha1.Sum([]byte(rawText))
	return slug + "-" + hex.EncodeToString(sum[:3])
}
