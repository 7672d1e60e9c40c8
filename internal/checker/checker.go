// Package checker extracts phone numbers from free text and classifies them.
// The classifier is a placeholder heuristic on the last digit.
package checker

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/suspectuso/numcheck-bot/internal/storage"
)

type Status string

const (
	StatusClean   Status = "clean"
	StatusLocked  Status = "locked"
	StatusBlocked Status = "blocked"
	StatusError   Status = "error"
)

// Source is where the checked numbers came from.
type Source string

const (
	SourceText       Source = "text"
	SourceFile       Source = "file"
	SourceScreenshot Source = "screenshot"
)

var (
	// ErrRecognitionUnavailable is returned by recognizers that cannot read images.
	ErrRecognitionUnavailable = errors.New("text recognition unavailable")
	// ErrUnreadableImage is returned when the input is not a decodable image.
	ErrUnreadableImage = errors.New("unreadable image")
)

var numberRegex = regexp.MustCompile(`\+?\d{5,15}`)

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// NoRecognizer reads nothing. It stands in when no OCR engine is installed.
type NoRecognizer struct{}

func (NoRecognizer) Recognize(context.Context, []byte) (string, error) {
	return "", ErrRecognitionUnavailable
}

// ExtractNumbers returns every number of 5 to 15 digits in text, normalized
// to a leading '+', in order of appearance.
func ExtractNumbers(text string) []string {
	matches := numberRegex.FindAllString(text, -1)
	numbers := make([]string, 0, len(matches))
	for _, m := range matches {
		if n := normalize(m); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

func normalize(raw string) string {
	digits := strings.TrimPrefix(raw, "+")
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// Classify returns the status of one number.
func Classify(number string) Status {
	if number == "" {
		return StatusError
	}

	last := number[len(number)-1]
	switch {
	case last < '0' || last > '9':
		return StatusError
	case last == '5':
		return StatusLocked
	case (last-'0')%2 == 0:
		return StatusBlocked
	default:
		return StatusClean
	}
}

// Check classifies every number.
func Check(numbers []string) []storage.CheckResult {
	results := make([]storage.CheckResult, 0, len(numbers))
	for _, n := range numbers {
		results = append(results, storage.CheckResult{Number: n, Status: string(Classify(n))})
	}
	return results
}

// Summary counts results per status.
type Summary struct {
	Total   int
	Clean   int
	Locked  int
	Blocked int
	Errors  int
}

func Summarize(results []storage.CheckResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch Status(r.Status) {
		case StatusClean:
			s.Clean++
		case StatusLocked:
			s.Locked++
		case StatusBlocked:
			s.Blocked++
		default:
			s.Errors++
		}
	}
	return s
}

// Format renders results one per line as "<number> <status>[ <reason>]".
func Format(results []storage.CheckResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.Number)
		b.WriteByte(' ')
		b.WriteString(r.Status)
		if r.Reason != "" {
			b.WriteByte(' ')
			b.WriteString(r.Reason)
		}
	}
	return b.String()
}
