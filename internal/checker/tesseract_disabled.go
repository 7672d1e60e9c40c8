//go:build notesseract

package checker

import "context"

// Tesseract is unavailable in binaries built with the notesseract tag.
type Tesseract struct{}

func NewTesseract(languages ...string) (*Tesseract, error) {
	return nil, ErrRecognitionUnavailable
}

func (*Tesseract) Recognize(context.Context, []byte) (string, error) {
	return "", ErrRecognitionUnavailable
}

func (*Tesseract) Close() error { return nil }
