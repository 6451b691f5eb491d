package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ConfidenceOutOfDomain is the conventional score for out-of-domain verdicts.
const ConfidenceOutOfDomain Confidence = "1.0"

var (
	confidenceMin = decimal.Zero
	confidenceMax = decimal.NewFromInt(1)
)

// ErrInvalidConfidence is returned for scores that are not decimals in [0, 1].
var ErrInvalidConfidence = errors.New("invalid confidence score")

// Confidence is a decimal score in [0.0, 1.0] kept in its original textual
// form. It is never reformatted through a float.
type Confidence string

// ParseConfidence validates s and returns it unchanged apart from surrounding
// whitespace.
func ParseConfidence(s string) (Confidence, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidConfidence, s)
	}
	if d.LessThan(confidenceMin) || d.GreaterThan(confidenceMax) {
		return "", fmt.Errorf("%w: %q out of range", ErrInvalidConfidence, s)
	}
	return Confidence(s), nil
}

// Validate reports whether c is a decimal in [0, 1].
func (c Confidence) Validate() error {
	_, err := ParseConfidence(string(c))
	return err
}

// String returns the score text.
func (c Confidence) String() string {
	return string(c)
}

// UnmarshalJSON accepts both "0.85" and 0.85. Numeric literals keep the
// exact digits that appeared on the wire.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Confidence(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfidence, string(data))
	}
	*c = Confidence(n.String())
	return nil
}
