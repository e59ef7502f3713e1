package flow

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pravoline/intakebot/internal/models"
)

// Extraction heuristics. The assistant is expected to record bookings through
// the explicit save_booking function; the extractor is the best-effort
// fallback for runs where it announced a save in free text instead.
const (
	// maxNameTokens is the largest whitespace-token count a message may have
	// and still qualify as a name.
	maxNameTokens = 3
	// minPhoneDigits is the minimum digit count for a phone candidate.
	minPhoneDigits = 7
	// minServiceLength is the minimum length in characters for a service
	// candidate. Lengths are counted in runes, not bytes, so Cyrillic input
	// measures the same as Latin.
	minServiceLength = 11
	// minCommentLength is the minimum length in characters for a residual
	// message to be kept as a comment.
	minCommentLength = 4
	// commentSeparator joins multiple extracted comment fragments.
	commentSeparator = "; "
)

// ExtractBooking infers a booking record from the ordered list of user
// messages in one conversation, oldest first. It runs in two stages:
//
// Stage 1 fills the name, phone, scheduled-time, and service slots with the
// first matching message. Slot predicates are tried in that priority order
// for every message; a message is consumed by the first empty slot it
// matches, and a filled slot is never overwritten.
//
// Stage 2 classifies every message that did not become a slot value as either
// the documents field (last match wins) or part of the comment.
//
// The second return value is false when the transcript does not contain at
// least a name and a phone number; callers must not persist in that case.
func ExtractBooking(messages []string, lex Lexicon) (*models.BookingRecord, bool) {
	rec := &models.BookingRecord{
		Documents: "none",
		Comment:   "none",
	}

	for _, msg := range messages {
		trimmed := strings.TrimSpace(msg)
		if trimmed == "" {
			continue
		}

		switch {
		case rec.Name == "" && isNameCandidate(trimmed, lex):
			rec.Name = trimmed
			slog.Debug("ExtractBooking: name slot filled", "name", rec.Name)
		case rec.Phone == "" && isPhoneCandidate(trimmed):
			rec.Phone = trimmed
			slog.Debug("ExtractBooking: phone slot filled", "phone", rec.Phone)
		case rec.ScheduledAt == "" && isDateCandidate(trimmed, lex):
			rec.ScheduledAt = trimmed
			slog.Debug("ExtractBooking: date slot filled", "date", rec.ScheduledAt)
		case rec.Service == "" && isServiceCandidate(trimmed, lex):
			rec.Service = trimmed
			slog.Debug("ExtractBooking: service slot filled", "service", rec.Service)
		}
	}

	for _, msg := range messages {
		trimmed := strings.TrimSpace(msg)
		if trimmed == "" {
			continue
		}
		// Slot values keep their role; only residual messages are classified.
		if trimmed == rec.Name || trimmed == rec.Phone || trimmed == rec.Service || trimmed == rec.ScheduledAt {
			continue
		}

		if lex.HasDocumentKeyword(trimmed) {
			rec.Documents = trimmed
			slog.Debug("ExtractBooking: documents classified", "documents", rec.Documents)
			continue
		}
		if utf8.RuneCountInString(trimmed) >= minCommentLength && !lex.IsAffirmation(trimmed) {
			if rec.Comment == "none" {
				rec.Comment = trimmed
			} else {
				rec.Comment += commentSeparator + trimmed
			}
			slog.Debug("ExtractBooking: comment fragment kept", "fragment", trimmed)
		}
	}

	if rec.Name == "" || rec.Phone == "" {
		slog.Debug("ExtractBooking: insufficient data",
			"has_name", rec.Name != "", "has_phone", rec.Phone != "")
		return nil, false
	}
	return rec, true
}

// isNameCandidate matches short digit-free messages that are not bare answers.
func isNameCandidate(msg string, lex Lexicon) bool {
	if containsDigit(msg) {
		return false
	}
	if len(strings.Fields(msg)) > maxNameTokens {
		return false
	}
	return !lex.IsAffirmation(msg)
}

// isPhoneCandidate matches messages with at least minPhoneDigits digits.
func isPhoneCandidate(msg string) bool {
	if !containsDigit(msg) || utf8.RuneCountInString(msg) < minPhoneDigits {
		return false
	}
	return countDigits(msg) >= minPhoneDigits
}

// isDateCandidate matches messages with a digit plus a date indicator.
func isDateCandidate(msg string, lex Lexicon) bool {
	return containsDigit(msg) && lex.HasDateIndicator(msg)
}

// isServiceCandidate matches longer descriptions: digit-free text, or text
// with digits that mentions a service-domain keyword.
func isServiceCandidate(msg string, lex Lexicon) bool {
	if utf8.RuneCountInString(msg) < minServiceLength {
		return false
	}
	if containsDigit(msg) && !lex.HasServiceKeyword(msg) {
		return false
	}
	return !lex.IsAffirmation(msg)
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
