package retrieval

import (
	"fmt"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

const (
	overviewSkills     = 10
	overviewIndustries = 5
)

// BuildContext renders search results for the answer prompt. Cross-document
// context starts with an overview of every valid document.
func (m *Manager) BuildContext(result commonModels.SearchResult) string {
	var b strings.Builder
	if result.Scope.Kind != commonModels.ScopeSingleDocument {
		b.WriteString(m.overview())
	}
	if result.IsEmpty() {
		b.WriteString("No relevant document sections were found.\n")
		return b.String()
	}

	b.WriteString("=== Relevant Document Sections ===\n")
	for _, g := range result.Groups {
		fmt.Fprintf(&b, "\n--- %s (document %s) ---\n", g.DisplayName, g.DocumentId)
		for _, h := range g.Hits {
			b.WriteString(strings.TrimSpace(h.Text))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (m *Manager) overview() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	b.WriteString("=== Candidates Overview ===\n")
	listed := 0
	for _, id := range m.order {
		d := m.documents[id]
		if !d.Validity.Valid {
			continue
		}
		listed++
		meta := d.Metadata
		fmt.Fprintf(&b, "\n* %s\n", d.DisplayName)
		if meta.CurrentRole != "" {
			fmt.Fprintf(&b, "  Role: %s\n", meta.CurrentRole)
		}
		if meta.YearsExperience != nil {
			fmt.Fprintf(&b, "  Experience: %d years\n", *meta.YearsExperience)
		}
		if len(meta.Skills) > 0 {
			fmt.Fprintf(&b, "  Skills: %s\n", strings.Join(meta.Skills[:min(overviewSkills, len(meta.Skills))], ", "))
		}
		if len(meta.Industries) > 0 {
			fmt.Fprintf(&b, "  Industries: %s\n", strings.Join(meta.Industries[:min(overviewIndustries, len(meta.Industries))], ", "))
		}
	}
	if listed == 0 {
		b.WriteString("\n(no valid documents)\n")
	}
	b.WriteString("\n")
	return b.String()
}
