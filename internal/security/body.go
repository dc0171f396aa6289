package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Request body errors.
var (
	ErrBodyTooLarge = errors.New("request body exceeds maximum size")
	ErrJSONTooDeep  = errors.New("JSON nesting exceeds maximum depth")
	ErrInvalidJSON  = errors.New("invalid JSON")
)

// BodyLimits bounds a JSON request body before it is unmarshalled.
// Zero fields fall back to DefaultBodyLimits.
type BodyLimits struct {
	MaxBytes int
	MaxDepth int
}

// DefaultBodyLimits fits a thread of a few hundred tweets.
var DefaultBodyLimits = BodyLimits{MaxBytes: 1 << 20, MaxDepth: 8}

// DecodeJSON decodes one JSON value from r into v under DefaultBodyLimits.
func DecodeJSON(r io.Reader, v any) error {
	return DefaultBodyLimits.Decode(r, v)
}

// Decode reads at most l.MaxBytes from r, rejects documents nested deeper
// than l.MaxDepth or followed by trailing data, and unmarshals into v.
func (l BodyLimits) Decode(r io.Reader, v any) error {
	maxBytes := positiveOr(l.MaxBytes, DefaultBodyLimits.MaxBytes)
	maxDepth := positiveOr(l.MaxDepth, DefaultBodyLimits.MaxDepth)

	data, err := io.ReadAll(io.LimitReader(r, int64(maxBytes)+1))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if len(data) > maxBytes {
		return fmt.Errorf("%w (max %d bytes)", ErrBodyTooLarge, maxBytes)
	}
	if err := checkDepth(data, maxDepth); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return nil
}

// checkDepth walks the token stream without building values.
func checkDepth(data []byte, limit int) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
		d, ok := tok.(json.Delim)
		if !ok {
			continue
		}
		if d == '{' || d == '[' {
			if depth++; depth > limit {
				return fmt.Errorf("%w (max %d)", ErrJSONTooDeep, limit)
			}
		} else {
			depth--
		}
	}
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
