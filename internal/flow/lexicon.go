// Package flow implements the intake flows: the structured field-by-field
// booking state machine and the transcript field extractor used as the
// fallback persistence path of the conversational flow.
package flow

import "strings"

// Lexicon holds the language-specific keyword sets the extractor and the
// record normalizer match against. Keeping them as data keeps the matching
// control flow reusable across languages.
type Lexicon struct {
	// Affirmations are whole-message phrases (lowercased) that never count as
	// a name, service, or comment: bare yes/no answers and booking intents.
	Affirmations []string
	// DateIndicators are substrings whose presence, together with a digit,
	// marks a message as a date: numeric separators and month-name fragments.
	DateIndicators []string
	// ServiceKeywords let a message containing digits still qualify as a
	// service description.
	ServiceKeywords []string
	// DocumentKeywords classify a residual message as the documents field.
	DocumentKeywords []string
	// NegativeSynonyms normalize to the literal "none" in optional fields.
	NegativeSynonyms []string
}

// DefaultLexicon returns the English keyword sets.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Affirmations: []string{
			"yes", "no", "none", "yes, i want to book", "i want to book", "book",
		},
		DateIndicators: []string{
			".", "/",
			"jan", "feb", "mar", "apr", "may", "jun",
			"jul", "aug", "sep", "oct", "nov", "dec",
		},
		ServiceKeywords: []string{
			"consultation", "lawyer", "attorney", "court", "legal",
		},
		DocumentKeywords: []string{
			"passport", "document", "certificate", "license", "statement",
		},
		NegativeSynonyms: []string{"no", "none", "nothing"},
	}
}

// RussianLexicon returns the keyword sets for the Russian-language deployment.
func RussianLexicon() Lexicon {
	return Lexicon{
		Affirmations: []string{
			"да", "нет", "да, хочу записаться", "хочу записаться", "записаться",
		},
		DateIndicators: []string{
			".", "/",
			"январ", "феврал", "март", "апрел", "мая", "май", "июн",
			"июл", "август", "сентябр", "октябр", "ноябр", "декабр",
		},
		ServiceKeywords: []string{
			"консультация", "адвокат", "суд",
		},
		DocumentKeywords: []string{
			"паспорт", "документ", "справк", "свидетельство", "удостовер",
		},
		NegativeSynonyms: []string{"нет", "no"},
	}
}

// IsAffirmation reports whether the whole message is a bare yes/no answer or
// booking-intent phrase.
func (l Lexicon) IsAffirmation(msg string) bool {
	lower := strings.ToLower(strings.TrimSpace(msg))
	for _, phrase := range l.Affirmations {
		if lower == phrase {
			return true
		}
	}
	return false
}

// HasDateIndicator reports whether the message contains a date separator or a
// month-name fragment.
func (l Lexicon) HasDateIndicator(msg string) bool {
	lower := strings.ToLower(msg)
	for _, ind := range l.DateIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// HasServiceKeyword reports whether the message mentions a service-domain term.
func (l Lexicon) HasServiceKeyword(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range l.ServiceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// HasDocumentKeyword reports whether the message mentions a document term.
func (l Lexicon) HasDocumentKeyword(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range l.DocumentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// NormalizeOptional normalizes an optional field value: empty strings and
// negative-response synonyms become the literal "none". The operation is
// idempotent since "none" is itself a negative synonym.
func (l Lexicon) NormalizeOptional(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	lower := strings.ToLower(trimmed)
	for _, syn := range l.NegativeSynonyms {
		if lower == syn {
			return "none"
		}
	}
	return trimmed
}
