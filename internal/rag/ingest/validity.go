package ingest

import (
	"context"
	"regexp"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
)

type verdict int

const (
	undecided verdict = iota
	accepted
	rejected
)

type heuristicResult struct {
	verdict  verdict
	positive int
	negative int
}

var resumeSignals = []*regexp.Regexp{
	regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`),
	regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`),
	regexp.MustCompile(`(?i)\b(experience|employment|work history)\b`),
	regexp.MustCompile(`(?i)\b(education|university|college|degree|bachelor|master'?s?|ph\.?d)\b`),
	regexp.MustCompile(`(?i)\bskill`),
	regexp.MustCompile(`(?i)\b(projects?|certifications?|objective|achievements?)\b`),
	regexp.MustCompile(`(?i)\b(engineer|developer|manager|analyst|designer|consultant|intern|architect|scientist)\b`),
	regexp.MustCompile(`(?i)\b(19|20)\d{2}\s*[-–]\s*((19|20)\d{2}|present|current)\b`),
	regexp.MustCompile(`(?i)(linkedin\.com|github\.com)`),
}

var otherSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(invoice|receipt|amount due|subtotal)\b`),
	regexp.MustCompile(`(?i)\b(recipe|ingredients|tablespoons?|preheat)\b`),
	regexp.MustCompile(`(?i)\b(terms and conditions|hereinafter|whereas)\b`),
	regexp.MustCompile(`(?i)\b(chapter|once upon a time)\b`),
}

// heuristicCheck is the first, free validity stage.
func heuristicCheck(text string) heuristicResult {
	r := heuristicResult{}
	for _, re := range resumeSignals {
		if re.MatchString(text) {
			r.positive++
		}
	}
	for _, re := range otherSignals {
		if re.MatchString(text) {
			r.negative++
		}
	}
	switch {
	case r.positive >= config.ValidityStrongSignals && r.positive > r.negative:
		r.verdict = accepted
	case r.positive == 0 && len(strings.TrimSpace(text)) < config.ValidityMinChars:
		r.verdict = rejected
	case r.negative >= 2 && r.positive <= 1:
		r.verdict = rejected
	}
	return r
}

const classifyExcerptBytes = 2000

// classify is the second stage: a one-word generation call on an excerpt.
func classify(ctx context.Context, provider llm.Provider, text string, temperature float64) (bool, error) {
	answer, err := provider.Generate(ctx, llm.Request{
		System:      llm.ValiditySystem,
		Prompt:      llm.ValidityPrompt(truncateRunes(text, classifyExcerptBytes)),
		Temperature: temperature,
	})
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(answer)), "YES"), nil
}

func (i *Ingestor) assessValidity(ctx context.Context, text string) commonModels.Validity {
	h := heuristicCheck(text)
	switch h.verdict {
	case accepted:
		return commonModels.Validity{Valid: true, Reason: commonModels.ReasonHeuristicMatch}
	case rejected:
		return commonModels.Validity{Valid: false, Reason: commonModels.ReasonNotExpectedDocumentType, Detail: "heuristic"}
	}

	if i.llm != nil {
		ok, err := classify(ctx, i.llm, text, i.opts.ExtractTemperature)
		if err == nil {
			if ok {
				return commonModels.Validity{Valid: true, Reason: commonModels.ReasonClassifierAccepted}
			}
			return commonModels.Validity{Valid: false, Reason: commonModels.ReasonNotExpectedDocumentType, Detail: "classifier"}
		}
		i.logger.WithTrace(ctx).Warn("validity classifier unavailable, using heuristic score", "error", err)
	}

	if h.positive > h.negative {
		return commonModels.Validity{Valid: true, Reason: commonModels.ReasonUnverified}
	}
	return commonModels.Validity{Valid: false, Reason: commonModels.ReasonNotExpectedDocumentType, Detail: "heuristic"}
}
