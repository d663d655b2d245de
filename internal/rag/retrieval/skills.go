package retrieval

import (
	"strings"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

// FindCandidatesWithSkill lists valid documents whose extracted skills or
// text mention skill, case-insensitively.
func (m *Manager) FindCandidatesWithSkill(skill string) []commonModels.DocumentInfo {
	needle := strings.ToLower(strings.TrimSpace(skill))
	if needle == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []commonModels.DocumentInfo
	for _, id := range m.order {
		d := m.documents[id]
		if !d.Validity.Valid {
			continue
		}
		if hasSkill(d.Metadata.Skills, needle) || strings.Contains(strings.ToLower(d.RawText), needle) {
			out = append(out, d.Info())
		}
	}
	return out
}

func hasSkill(skills []string, needle string) bool {
	for _, s := range skills {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}
