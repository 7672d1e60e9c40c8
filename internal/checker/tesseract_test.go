//go:build !notesseract

package checker

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTesseract(t *testing.T) *Tesseract {
	t.Helper()
	ocr, err := NewTesseract("eng")
	if errors.Is(err, ErrRecognitionUnavailable) {
		t.Skipf("tesseract not installed: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { ocr.Close() })
	return ocr
}

func TestTesseractReadsNumbers(t *testing.T) {
	ocr := newTesseract(t)

	image, err := os.ReadFile("testdata/numbers.png")
	require.NoError(t, err)

	text, err := ocr.Recognize(context.Background(), image)
	require.NoError(t, err)
	assert.Contains(t, ExtractNumbers(text), "+79991234567")
}

func TestTesseractRejectsGarbage(t *testing.T) {
	ocr := newTesseract(t)

	_, err := ocr.Recognize(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, ErrUnreadableImage)
}

func TestTesseractUnknownLanguage(t *testing.T) {
	_, err := NewTesseract("xx-not-a-language")
	assert.ErrorIs(t, err, ErrRecognitionUnavailable)
}
