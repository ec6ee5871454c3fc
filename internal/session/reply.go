// Package session holds per-conversation state and the operations the
// dialogue engine invokes on it.
package session

import (
	stderrors "errors"
	"strings"
	"unicode"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/journal"
)

// Status classifies a Reply.
type Status string

const (
	// StatusPrompt asks for the next missing field.
	StatusPrompt Status = "prompt"
	// StatusComplete confirms a finalized record.
	StatusComplete Status = "complete"
	// StatusClarify explains why input was not accepted. Nothing changed.
	StatusClarify Status = "clarify"
	// StatusOK answers a query or acknowledges a non-record action.
	StatusOK Status = "ok"
)

// Reply is the text handed back to the dialogue engine plus structured extras.
type Reply struct {
	Text    string         `json:"text"`
	Status  Status         `json:"status"`
	Missing []string       `json:"missing,omitempty"`
	Entry   *journal.Entry `json:"entry,omitempty"`
	Data    any            `json:"data,omitempty"`
}

// clarify turns a caller-input error into a clarification reply. Errors that
// are not about the input (persistence, internal, context) are returned as-is.
func clarify(err error, followUp string) (Reply, error) {
	var iErr *errors.IntakeError
	if !stderrors.As(err, &iErr) {
		return Reply{}, err
	}
	switch iErr.Code {
	case errors.ErrPersistence, errors.ErrInternal:
		return Reply{}, err
	}

	text := sentence(iErr.Message)
	if followUp != "" {
		text += " " + followUp
	}
	r := Reply{Text: text, Status: StatusClarify}
	if missing, ok := iErr.Details["missing_fields"].([]string); ok {
		r.Missing = missing
	}
	return r, nil
}

// sentence capitalizes s and makes sure it ends with punctuation.
func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	switch r[len(r)-1] {
	case '.', '?', '!':
	default:
		r = append(r, '.')
	}
	return string(r)
}
