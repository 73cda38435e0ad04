package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceFromSimilarity(t *testing.T) {
	cases := []struct {
		sim  float64
		want Confidence
	}{
		{1.0, ConfidenceExact},
		{0.99, ConfidenceExact},
		{0.98, ConfidenceHigh},
		{0.8, ConfidenceHigh},
		{0.70, ConfidenceHigh},
		{0.6, ConfidenceMedium},
		{0.50, ConfidenceMedium},
		{0.49, ConfidenceLow},
		{0.3, ConfidenceLow},
		{0, ConfidenceLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, confidenceFromSimilarity(tc.sim), "similarity %v", tc.sim)
	}
}

func TestConfidenceFromDistance(t *testing.T) {
	cases := []struct {
		dist float64
		want Confidence
	}{
		{0, ConfidenceExact},
		{0.1, ConfidenceHigh},
		{0.19, ConfidenceHigh},
		{0.2, ConfidenceMedium},
		{0.39, ConfidenceMedium},
		{0.4, ConfidenceLow},
		{0.8, ConfidenceLow},
		{1.0, ConfidenceLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, confidenceFromDistance(tc.dist), "distance %v", tc.dist)
	}
}
