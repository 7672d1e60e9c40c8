package nowpayments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the IPN HMAC.
const SignatureHeader = "x-nowpayments-sig"

var ErrInvalidSignature = errors.New("invalid IPN signature")

// ParseIPN verifies the signature of an IPN body and decodes it. The HMAC is
// SHA-512 over the body re-encoded with sorted keys.
func ParseIPN(secret string, body []byte, signature string) (*IPN, error) {
	if secret == "" || signature == "" {
		return nil, ErrInvalidSignature
	}

	expected, err := Sign(secret, body)
	if err != nil {
		return nil, fmt.Errorf("parse ipn: %w", err)
	}
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return nil, ErrInvalidSignature
	}

	var ipn IPN
	if err := json.Unmarshal(body, &ipn); err != nil {
		return nil, fmt.Errorf("parse ipn: %w", err)
	}
	return &ipn, nil
}

// Sign returns the signature the provider would send for body.
func Sign(secret string, body []byte) (string, error) {
	canonical, err := sortedJSON(body)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// sortedJSON re-encodes body with object keys in sorted order.
func sortedJSON(body []byte) ([]byte, error) {
	var v map[string]any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
