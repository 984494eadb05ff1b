package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Default webhook body limits. Messenger batches stay well below both.
const (
	DefaultMaxBodyBytes = 1 << 20 // 1 MiB
	DefaultMaxJSONDepth = 16
)

// Validation errors.
var (
	ErrBodyTooLarge = errors.New("body exceeds maximum size")
	ErrJSONTooDeep  = errors.New("JSON nesting exceeds maximum depth")
	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrNotObject    = errors.New("body is not a JSON object")
)

// BodyLimits bounds inbound webhook bodies. Zero fields use the defaults.
type BodyLimits struct {
	MaxBytes int64 `yaml:"max_bytes"`
	MaxDepth int   `yaml:"max_depth"`
}

// Bytes returns the effective size limit.
func (l BodyLimits) Bytes() int64 {
	if l.MaxBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return l.MaxBytes
}

// Depth returns the effective nesting limit.
func (l BodyLimits) Depth() int {
	if l.MaxDepth <= 0 {
		return DefaultMaxJSONDepth
	}
	return l.MaxDepth
}

// Check accepts a single JSON object within the size and depth limits.
// Depth is checked by streaming tokens, so a deeply nested body is
// rejected before it is decoded anywhere.
func (l BodyLimits) Check(body []byte) error {
	if n, max := int64(len(body)), l.Bytes(); n > max {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrBodyTooLarge, n, max)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	limit := l.Depth()
	depth := 0
	for first := true; ; first = false {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			switch {
			case first:
				return ErrNotObject
			case depth != 0:
				return fmt.Errorf("%w: unexpected end of body", ErrInvalidJSON)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
		if first && tok != json.Delim('{') {
			return ErrNotObject
		}

		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > limit {
				return fmt.Errorf("%w: depth %d (max %d)", ErrJSONTooDeep, depth, limit)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
			if depth == 0 && dec.More() {
				return fmt.Errorf("%w: trailing data after object", ErrInvalidJSON)
			}
		}
	}
}
