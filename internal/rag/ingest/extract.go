package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

func getDocType(docPath string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt":
		return commonModels.DOCX
	case ".rtf":
		return commonModels.RTF
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

// SupportedFile reports whether ExtractText can read a file with this name.
func SupportedFile(name string) bool {
	return getDocType(name) != commonModels.ERR
}

// ExtractText turns an uploaded file into plain text. Pages of a PDF are
// joined with blank lines so they also act as paragraph boundaries.
func (i *Ingestor) ExtractText(path string) (string, commonModels.DocType, error) {
	docType := getDocType(path)
	switch docType {
	case commonModels.PDF:
		text, err := i.extractPDF(path)
		return text, docType, err
	case commonModels.TXT:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", docType, fmt.Errorf("failed to read text file: %w", err)
		}
		return string(raw), docType, nil
	case commonModels.DOCX, commonModels.RTF:
		text, err := cat.File(path)
		if err != nil {
			i.logger.Error("Error extracting content from doc", "path", path, "error", err)
			return "", docType, fmt.Errorf("failed to extract %s: %w", docType, err)
		}
		return text, docType, nil
	default:
		return "", docType, fmt.Errorf("%s: %w", filepath.Ext(path), ErrUnsupportedFile)
	}
}

func (i *Ingestor) extractPDF(path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		i.logger.Error("failed opening of pdf file", "path", path)
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for n := 1; n <= f.NumPage(); n++ {
		page := f.Page(n)
		if page.V.IsNull() {
			continue
		}
		content, err := protectExtract(page)
		if err != nil {
			// a broken page should not sink the whole document
			i.logger.Warn("Error parsing page content", "page", n, "error", err)
			continue
		}
		pages = append(pages, content)
	}
	i.logger.Debug("extractPDF", "pages", f.NumPage(), "extracted", len(pages))
	return strings.Join(pages, "\n\n"), nil
}

func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.ExtractionTimeout):
		return "", errors.New("page extraction timed out")
	}
}
