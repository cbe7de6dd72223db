package models

// TranslateRequest is a translation request for plain label text.
type TranslateRequest struct {
	Text string `json:"text"`
}

// Translation is the result of one augmented translation.
type Translation struct {
	TranslatedText   string           `json:"translated_text"`
	DetectedLanguage string           `json:"detected_language"` // "arabic", "english", "mixed" or "unknown"
	TokensUsed       int              `json:"tokens_used"`
	CostEstimate     float64          `json:"cost_estimate"`
	Hints            []RetrievedEntry `json:"hints,omitempty"` // glossary entries used to augment the prompt
}

// Extraction is the result of extracting text from an image or document and
// translating it. An empty ExtractedText means no text was detected; no
// translation is attempted in that case.
type Extraction struct {
	ExtractedText string       `json:"extracted_text"`
	Translation   *Translation `json:"translation,omitempty"`
}
