// Package indexFile reads and writes the precomputed base index: a YAML
// manifest describing the source documents and their chunk spans, the
// source texts themselves, and a flat little-endian float32 vector file.
package indexFile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"gopkg.in/yaml.v3"
)

const manifestVersion = 1

type Manifest struct {
	Version        int                `yaml:"version"`
	EmbeddingModel string             `yaml:"embedding_model"`
	Dimension      int                `yaml:"dimension"`
	BuiltAt        time.Time          `yaml:"built_at"`
	Documents      []ManifestDocument `yaml:"documents"`
}

type ManifestDocument struct {
	Id          string                    `yaml:"id"`
	Kind        commonModels.DocumentKind `yaml:"kind"`
	SourceLabel string                    `yaml:"source_label"`
	DisplayName string                    `yaml:"display_name"`
	TextFile    string                    `yaml:"text_file"`
	Metadata    commonModels.Metadata     `yaml:"metadata,omitempty"`
	Chunks      []Span                    `yaml:"chunks"`
}

type Span struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// BaseDocument is a loaded record with one vector per chunk.
type BaseDocument struct {
	Record  commonModels.DocumentRecord
	Vectors [][]float32
}

func (m Manifest) vectorCount() int {
	n := 0
	for _, d := range m.Documents {
		n += len(d.Chunks)
	}
	return n
}

// Save writes the manifest, copies of the source texts and the vectors into dir.
func Save(dir, embeddingModel string, docs []BaseDocument) error {
	if len(docs) == 0 {
		return errors.New("no documents to save")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dim := 0
	manifest := Manifest{
		Version:        manifestVersion,
		EmbeddingModel: embeddingModel,
		BuiltAt:        time.Now().UTC(),
	}
	for _, d := range docs {
		if len(d.Vectors) != len(d.Record.Chunks) {
			return fmt.Errorf("document %s: %d chunks but %d vectors", d.Record.Id, len(d.Record.Chunks), len(d.Vectors))
		}
		textFile := d.Record.Id + ".txt"
		if err := os.WriteFile(filepath.Join(dir, textFile), []byte(d.Record.RawText), 0o644); err != nil {
			return err
		}
		md := ManifestDocument{
			Id:          d.Record.Id,
			Kind:        d.Record.Kind,
			SourceLabel: d.Record.SourceLabel,
			DisplayName: d.Record.DisplayName,
			TextFile:    textFile,
			Metadata:    d.Record.Metadata,
		}
		for i, c := range d.Record.Chunks {
			if dim == 0 {
				dim = len(d.Vectors[i])
			}
			if len(d.Vectors[i]) != dim {
				return &commonModels.DimensionError{Expected: dim, Got: len(d.Vectors[i])}
			}
			md.Chunks = append(md.Chunks, Span{Start: c.Start, End: c.End})
		}
		manifest.Documents = append(manifest.Documents, md)
	}
	manifest.Dimension = dim

	raw, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	if err = os.WriteFile(filepath.Join(dir, config.BaseManifestFile), raw, 0o644); err != nil {
		return err
	}
	return writeVectors(filepath.Join(dir, config.BaseVectorsFile), docs)
}

func writeVectors(path string, docs []BaseDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, d := range docs {
		for _, v := range d.Vectors {
			if err = binary.Write(w, binary.LittleEndian, v); err != nil {
				_ = f.Close()
				return err
			}
		}
	}
	if err = w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadManifest loads only the manifest.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(filepath.Join(dir, config.BaseManifestFile))
	if err != nil {
		return m, err
	}
	if err = yaml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return m, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	return m, nil
}

// Load reads the base index from dir. A dimension different from the
// running embedder fails with ErrDimensionMismatch.
func Load(dir string, expectedDimension int) ([]BaseDocument, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if m.Dimension != expectedDimension {
		return nil, fmt.Errorf("base index %s: %w", dir, &commonModels.DimensionError{Expected: expectedDimension, Got: m.Dimension})
	}

	f, err := os.Open(filepath.Join(dir, config.BaseVectorsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	docs := make([]BaseDocument, 0, len(m.Documents))
	for _, md := range m.Documents {
		raw, err := os.ReadFile(filepath.Join(dir, md.TextFile))
		if err != nil {
			return nil, err
		}
		text := string(raw)
		record := commonModels.DocumentRecord{
			Id:          md.Id,
			SourceLabel: md.SourceLabel,
			DisplayName: md.DisplayName,
			Kind:        md.Kind,
			Pinned:      true,
			RawText:     text,
			Metadata:    md.Metadata,
			Validity:    commonModels.Validity{Valid: true, Reason: commonModels.ReasonPinned},
			IngestedAt:  m.BuiltAt,
		}
		vectors := make([][]float32, 0, len(md.Chunks))
		for i, span := range md.Chunks {
			if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
				return nil, fmt.Errorf("document %s chunk %d: span [%d,%d) outside text", md.Id, i, span.Start, span.End)
			}
			record.Chunks = append(record.Chunks, commonModels.Chunk{Index: i, Text: text[span.Start:span.End], Start: span.Start, End: span.End})
			v, err := readVector(r, m.Dimension)
			if err != nil {
				return nil, fmt.Errorf("vectors for %s: %w", md.Id, err)
			}
			vectors = append(vectors, v)
		}
		docs = append(docs, BaseDocument{Record: record, Vectors: vectors})
	}
	if _, err = r.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("vector file holds more than %d vectors", m.vectorCount())
	}
	return docs, nil
}

func readVector(r io.Reader, dim int) ([]float32, error) {
	buf := make([]byte, 4*dim)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
