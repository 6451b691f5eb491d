package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfidence(t *testing.T) {
	valid := []string{"0", "0.0", "1", "1.0", "0.85", "0.850", " 0.5 "}
	for _, s := range valid {
		c, err := ParseConfidence(s)
		require.NoError(t, err, s)
		assert.NoError(t, c.Validate())
	}

	invalid := []string{"", "high", "1.01", "-0.1", "2", "0.5.1"}
	for _, s := range invalid {
		_, err := ParseConfidence(s)
		assert.ErrorIs(t, err, ErrInvalidConfidence, s)
	}
}

func TestParseConfidence_PreservesText(t *testing.T) {
	c, err := ParseConfidence("0.850")
	require.NoError(t, err)
	assert.Equal(t, Confidence("0.850"), c)
}

func TestConfidence_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		in   string
		want Confidence
	}{
		{`{"confidence_score":"0.90"}`, "0.90"},
		{`{"confidence_score":0.90}`, "0.90"},
		{`{"confidence_score":1}`, "1"},
		{`{"confidence_score":null}`, ""},
	}
	for _, tc := range cases {
		var out struct {
			Confidence Confidence `json:"confidence_score"`
		}
		require.NoError(t, json.Unmarshal([]byte(tc.in), &out), tc.in)
		assert.Equal(t, tc.want, out.Confidence, tc.in)
	}
}

func TestVerificationRecord_JSONRoundTripKeepsConfidence(t *testing.T) {
	rec := VerificationRecord{TextHash: "abc", Confidence: "0.700"}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"confidence_score":"0.700"`)

	var back VerificationRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Confidence("0.700"), back.Confidence)
}
