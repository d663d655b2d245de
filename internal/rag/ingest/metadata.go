package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
)

var (
	firstNumber = regexp.MustCompile(`\d+`)
	keyLine     = regexp.MustCompile(`^\s*(?:[-*\d.)]+\s*)?\**([A-Za-z_ ]+?)\**\s*:\s*(.*)$`)
	codeFence   = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
)

var placeholders = map[string]struct{}{
	"unknown": {}, "not provided": {}, "not found": {}, "not specified": {}, "not mentioned": {},
	"n/a": {}, "na": {}, "none": {}, "null": {}, "nil": {}, "-": {}, "": {},
}

// ExtractMetadata runs one generation call over the document text. Any
// failure yields empty metadata; ingestion never fails here.
func (i *Ingestor) ExtractMetadata(ctx context.Context, text string) commonModels.Metadata {
	log := i.logger.WithTrace(ctx)
	if i.llm == nil {
		log.Debug("no generation provider, metadata left empty")
		return commonModels.Metadata{}
	}
	meta, err := i.RequestMetadata(ctx, text)
	if err != nil {
		log.Warn("metadata extraction failed, metadata left empty", "error", err)
		return commonModels.Metadata{}
	}
	return meta
}

// RequestMetadata is ExtractMetadata with the generation failure reported.
// An unparsable response is not an error: it yields empty metadata.
func (i *Ingestor) RequestMetadata(ctx context.Context, text string) (commonModels.Metadata, error) {
	if i.llm == nil {
		return commonModels.Metadata{}, fmt.Errorf("metadata extraction: %w", commonModels.ErrCollaboratorUnavailable)
	}
	response, err := i.llm.Generate(ctx, llm.Request{
		System:      llm.MetadataSystem,
		Prompt:      llm.MetadataPrompt(truncateRunes(text, i.opts.MetadataMaxChars)),
		Temperature: i.opts.ExtractTemperature,
	})
	if err != nil {
		return commonModels.Metadata{}, commonModels.Upstream("generation", err)
	}
	meta, ok := parseMetadata(response)
	if !ok {
		i.logger.WithTrace(ctx).Warn("metadata response could not be parsed, metadata left empty", "responseBytes", len(response))
		return commonModels.Metadata{}, nil
	}
	return meta, nil
}

// truncateRunes cuts text to at most limit bytes without splitting a rune.
// limit <= 0 means no limit.
func truncateRunes(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// parseMetadata accepts either KEY: value lines or a JSON object. Unknown
// keys are ignored and placeholder values are treated as absent. ok is false
// when no field at all could be read.
func parseMetadata(response string) (commonModels.Metadata, bool) {
	response = strings.TrimSpace(response)
	if m := codeFence.FindStringSubmatch(response); m != nil {
		response = m[1]
	}
	if strings.HasPrefix(response, "{") {
		return parseJSONMetadata(response)
	}

	fields := map[string]string{}
	for _, line := range strings.Split(response, "\n") {
		m := keyLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fields[normalizeKey(m[1])] = m[2]
	}
	return fromFields(fields)
}

func parseJSONMetadata(response string) (commonModels.Metadata, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		return commonModels.Metadata{}, false
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fields[normalizeKey(k)] = val
		case float64:
			fields[normalizeKey(k)] = strconv.FormatFloat(val, 'f', -1, 64)
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				if s, ok := p.(string); ok {
					parts = append(parts, s)
				}
			}
			fields[normalizeKey(k)] = strings.Join(parts, ", ")
		}
	}
	return fromFields(fields)
}

func normalizeKey(k string) string {
	k = strings.ToUpper(strings.TrimSpace(k))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	switch k {
	case "NAME", "FULL_NAME":
		return "CANDIDATE_NAME"
	case "SKILLS":
		return "KEY_SKILLS"
	case "YEARS_EXPERIENCE", "YEARS_OF_EXPERIENCE", "EXPERIENCE":
		return "EXPERIENCE_YEARS"
	case "ROLE", "TITLE":
		return "CURRENT_ROLE"
	}
	return k
}

func fromFields(fields map[string]string) (commonModels.Metadata, bool) {
	var m commonModels.Metadata
	recognised := false
	for key, value := range fields {
		value = clean(value)
		switch key {
		case "CANDIDATE_NAME":
			m.Name = value
		case "EMAIL":
			m.Email = value
		case "PHONE":
			m.Phone = value
		case "SUMMARY":
			m.Summary = value
		case "KEY_SKILLS":
			m.Skills = splitList(value)
		case "EXPERIENCE_YEARS":
			if n := firstNumber.FindString(value); n != "" {
				if years, err := strconv.Atoi(n); err == nil {
					m.YearsExperience = &years
				}
			}
		case "CURRENT_ROLE":
			m.CurrentRole = value
		case "EDUCATION":
			m.Education = value
		case "INDUSTRIES":
			m.Industries = splitList(value)
		default:
			continue
		}
		recognised = true
	}
	return m, recognised
}

func clean(value string) string {
	value = strings.Trim(strings.TrimSpace(value), `"'*[]`)
	value = strings.TrimSpace(value)
	if _, ok := placeholders[strings.ToLower(value)]; ok {
		return ""
	}
	return value
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := clean(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
