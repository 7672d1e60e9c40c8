package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suspectuso/numcheck-bot/internal/storage"
)

func TestExtractNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", "call 79991234567 now", []string{"+79991234567"}},
		{"with plus", "+12025550143, +447700900123", []string{"+12025550143", "+447700900123"}},
		{"too short", "1234 and 12345", []string{"+12345"}},
		{"long run capped at 15 digits", "1234567890123456789", []string{"+123456789012345"}},
		{"none", "no numbers here", []string{}},
		{"multiline", "111111\n222222\r\n333333", []string{"+111111", "+222222", "+333333"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractNumbers(tt.text))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusLocked, Classify("+10005"))
	assert.Equal(t, StatusBlocked, Classify("+10004"))
	assert.Equal(t, StatusBlocked, Classify("+10000"))
	assert.Equal(t, StatusClean, Classify("+10007"))
	assert.Equal(t, StatusError, Classify(""))
	assert.Equal(t, StatusError, Classify("+1000x"))
}

func TestCheckAndSummarize(t *testing.T) {
	results := Check([]string{"+11111", "+11112", "+11115", "+11117"})
	assert.Equal(t, []storage.CheckResult{
		{Number: "+11111", Status: "clean"},
		{Number: "+11112", Status: "blocked"},
		{Number: "+11115", Status: "locked"},
		{Number: "+11117", Status: "clean"},
	}, results)

	assert.Equal(t, Summary{Total: 4, Clean: 2, Locked: 1, Blocked: 1}, Summarize(results))
}

func TestFormat(t *testing.T) {
	out := Format([]storage.CheckResult{
		{Number: "+11111", Status: "clean"},
		{Number: "+11112", Status: "error", Reason: "timeout"},
	})
	assert.Equal(t, "+11111 clean\n+11112 error timeout", out)
	assert.Empty(t, Format(nil))
}

func TestNoRecognizer(t *testing.T) {
	_, err := NoRecognizer{}.Recognize(context.Background(), []byte{0x89})
	assert.ErrorIs(t, err, ErrRecognitionUnavailable)
}
