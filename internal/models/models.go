// Package models defines the core data structures used throughout the application.
package models

import (
	"time"
)

// VerificationRecord is the persisted outcome of a fact-check for a given text.
// Records are immutable once stored.
type VerificationRecord struct {
	ID          string     `json:"id"`
	InputID     string     `json:"input_id"`
	TextHash    string     `json:"text_hash"`
	Keywords    []string   `json:"keywords"`
	Correctness bool       `json:"correctness"`
	OutOfDomain bool       `json:"out_of_domain"`
	Misinfo     string     `json:"misinfo"`
	Rightinfo   string     `json:"rightinfo"`
	Confidence  Confidence `json:"confidence_score"`
	Sources     []string   `json:"sources"`
	CreatedAt   time.Time  `json:"created_at"`
}

// VerdictPayload is what the verification agent hands back for one text.
// The index lists refer to the numbered passages the agent was shown.
type VerdictPayload struct {
	Correctness      bool       `json:"Correctness"`
	OutOfDomain      bool       `json:"Out_of_domain"`
	Misinfo          string     `json:"misinfo"`
	Rightinfo        string     `json:"rightinfo"`
	MisinfoIndices   []int      `json:"misinfo_indices"`
	RightinfoIndices []int      `json:"rightinfo_indices"`
	Confidence       Confidence `json:"confidence_score"`
	Sources          []string   `json:"sources"`
}

// AgentOutput is the structured answer requested from the model.
// Field names follow the schema the prompts describe.
type AgentOutput struct {
	Correctness      bool       `json:"Correctness"`
	OutOfDomain      bool       `json:"Out_of_domain"`
	MisinfoIndices   []int      `json:"misinfo_indices"`
	RightinfoIndices []int      `json:"rightinfo_indices"`
	Confidence       Confidence `json:"confidence_score"`
	Sources          []string   `json:"sources"`
}

// SearchResult is a single hit returned by a search source.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
}

// SiteDoc is the text content of a fetched page.
type SiteDoc struct {
	SourceURL string            `json:"source_url"`
	Title     string            `json:"title,omitempty"`
	Markdown  string            `json:"markdown"`
	FetchedAt time.Time         `json:"fetched_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ProcessTextRequest is the request body for the process_text endpoint.
type ProcessTextRequest struct {
	InputID   string   `json:"input_id" validate:"required,max=256"`
	RawTexts  []string `json:"raw_texts" validate:"required,min=1"`
	Resources []string `json:"resources" validate:"omitempty,dive,url"`
}

// Warning represents a non-fatal issue during processing.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}
