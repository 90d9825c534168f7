package roll

import (
	"errors"
	"strings"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one roll request.
type Result struct {
	Status    string `json:"status"`
	RollValue int    `json:"rollValue"`
	NumDice   int    `json:"numDice"`
	DieType   string `json:"dieType"`
	DieSpec   string `json:"dieSpec"`

	Context  Context  `json:"rollContext,omitempty"`
	Kind     string   `json:"rollType,omitempty"`
	Source   SourceID `json:"source,omitempty"`
	Category string   `json:"category,omitempty"`

	// TableName is the raw table label; presentation title-cases it.
	TableName string `json:"tableName,omitempty"`

	ResultText  string `json:"resultText,omitempty"`
	Description string `json:"description,omitempty"`
	Effect      string `json:"effect,omitempty"`

	IsSecondaryPrompt   bool    `json:"isSecondaryPrompt"`
	SecondaryPromptText string  `json:"secondaryPromptText,omitempty"`
	SecondaryType       Trigger `json:"secondaryType,omitempty"`
	SecondaryResultText string  `json:"secondaryResultText,omitempty"`

	PrimaryRollValueForSecondary *int   `json:"primaryRollValueForSecondary,omitempty"`
	PrimaryResultForSecondary    string `json:"primaryResultForSecondary,omitempty"`

	// Narrative is the log sentence composed for this roll.
	Narrative string `json:"narrative,omitempty"`

	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ErrorResult wraps err in an error-status Result.
func ErrorResult(err error) *Result {
	msg := err.Error()
	if errors.Is(err, ErrInvalidInput) {
		msg = strings.TrimPrefix(msg, ErrInvalidInput.Error()+": ")
	}
	return &Result{Status: StatusError, ErrorMessage: msg}
}

// Succeeded reports whether the roll resolved.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// PendingSecondary reports whether a bonus roll was raised but not resolved
// in this call.
func (r *Result) PendingSecondary() bool {
	return r.IsSecondaryPrompt && r.SecondaryResultText == ""
}

// NarrativeText is the single piece of text a log sentence should quote.
func (r *Result) NarrativeText() string {
	switch {
	case r.SecondaryResultText != "":
		return r.SecondaryResultText
	case r.Description != "" && r.ResultText == "":
		return strings.TrimSpace(r.Description + " Effect: " + r.Effect)
	default:
		return r.ResultText
	}
}
