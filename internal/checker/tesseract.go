//go:build !notesseract

package checker

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text in images with the Tesseract OCR engine.
// One engine instance is shared and calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract loads the engine with languages (e.g. "eng"). It returns an
// error wrapping ErrRecognitionUnavailable when the trained data for a
// language is not installed.
func NewTesseract(languages ...string) (*Tesseract, error) {
	available, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("%w: list tesseract languages: %v", ErrRecognitionUnavailable, err)
	}
	for _, lang := range languages {
		if !slices.Contains(available, lang) {
			return nil, fmt.Errorf("%w: tesseract language %q not installed", ErrRecognitionUnavailable, lang)
		}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRecognitionUnavailable, err)
	}
	return &Tesseract{client: client}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return text, nil
}

// Close releases the engine.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
