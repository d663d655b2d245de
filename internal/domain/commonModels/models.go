package commonModels

import "time"

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var RTF DocType = "RTF"
var ERR DocType = "ERROR"

type DocumentKind string

const (
	KindResume  DocumentKind = "resume"
	KindProfile DocumentKind = "profile"
)

// Chunk is a span of the owning record's raw text.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Metadata holds what the extractor could read from the document. Missing
// fields stay empty; YearsExperience is nil when unknown.
type Metadata struct {
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	YearsExperience *int     `json:"years_experience,omitempty"`
	CurrentRole     string   `json:"current_role,omitempty"`
	Education       string   `json:"education,omitempty"`
	Industries      []string `json:"industries,omitempty"`
}

func (m Metadata) IsEmpty() bool {
	return m.Name == "" && m.Email == "" && m.Phone == "" && m.Summary == "" &&
		len(m.Skills) == 0 && m.YearsExperience == nil && m.CurrentRole == "" &&
		m.Education == "" && len(m.Industries) == 0
}

type ValidityReason string

const (
	ReasonHeuristicMatch          ValidityReason = "HeuristicMatch"
	ReasonClassifierAccepted      ValidityReason = "ClassifierAccepted"
	ReasonUnverified              ValidityReason = "Unverified"
	ReasonPinned                  ValidityReason = "Pinned"
	ReasonNotExpectedDocumentType ValidityReason = "NotExpectedDocumentType"
)

type Validity struct {
	Valid  bool           `json:"valid"`
	Reason ValidityReason `json:"reason"`
	Detail string         `json:"detail,omitempty"`
}

type DocumentRecord struct {
	Id          string       `json:"id"`
	SourceLabel string       `json:"source_label"`
	DisplayName string       `json:"display_name"`
	Kind        DocumentKind `json:"kind"`
	Pinned      bool         `json:"pinned"`
	RawText     string       `json:"raw_text"`
	Chunks      []Chunk      `json:"chunks"`
	Metadata    Metadata     `json:"metadata"`
	Validity    Validity     `json:"validity"`
	IngestedAt  time.Time    `json:"ingested_at"`
}

// DocumentInfo is the listing view of a record, without text.
type DocumentInfo struct {
	Id          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	SourceLabel string       `json:"source_label"`
	Kind        DocumentKind `json:"kind"`
	Pinned      bool         `json:"pinned"`
	ChunkCount  int          `json:"chunk_count"`
	Metadata    Metadata     `json:"metadata"`
	Validity    Validity     `json:"validity"`
	IngestedAt  time.Time    `json:"ingested_at"`
}

func (d DocumentRecord) Info() DocumentInfo {
	return DocumentInfo{
		Id:          d.Id,
		DisplayName: d.DisplayName,
		SourceLabel: d.SourceLabel,
		Kind:        d.Kind,
		Pinned:      d.Pinned,
		ChunkCount:  len(d.Chunks),
		Metadata:    d.Metadata,
		Validity:    d.Validity,
		IngestedAt:  d.IngestedAt,
	}
}

// DocumentSummary is the inspection view of one record.
type DocumentSummary struct {
	Id          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	RawText     string   `json:"raw_text"`
	Chunks      []string `json:"chunks"`
	Metadata    Metadata `json:"metadata"`
	Validity    Validity `json:"validity"`
}

type ConversationTurn struct {
	Seq       int64     `json:"seq"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}
