package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultParams(t *testing.T) {
	params := NewDefaultParams()

	assert.Equal(t, DefaultWeights, params.Weights)
	assert.Equal(t, 0.9, params.DesiredRetention)
	assert.Equal(t, []time.Duration{time.Minute, 10 * time.Minute}, params.LearningSteps)
	assert.Equal(t, []time.Duration{10 * time.Minute}, params.RelearningSteps)
	assert.Equal(t, 36500, params.MaximumInterval)

	for i, w := range DefaultWeights {
		assert.GreaterOrEqual(t, w, lowerBounds[i], "w[%d]", i)
		assert.LessOrEqual(t, w, upperBounds[i], "w[%d]", i)
	}
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	outOfBounds := append([]float64(nil), DefaultWeights[:]...)
	outOfBounds[7] = 0.9

	tests := []struct {
		name    string
		config  ParamsConfig
		wantErr bool
		check   func(t *testing.T, p *Params)
	}{
		{
			name:   "zero config keeps defaults",
			config: ParamsConfig{},
			check: func(t *testing.T, p *Params) {
				assert.Equal(t, NewDefaultParams(), p)
			},
		},
		{
			name: "overrides are applied",
			config: ParamsConfig{
				DesiredRetention: 0.85,
				MaximumInterval:  365,
				LearningSteps:    []time.Duration{5 * time.Minute},
				RelearningSteps:  []time.Duration{time.Minute, 30 * time.Minute},
			},
			check: func(t *testing.T, p *Params) {
				assert.Equal(t, 0.85, p.DesiredRetention)
				assert.Equal(t, 365, p.MaximumInterval)
				assert.Len(t, p.LearningSteps, 1)
				assert.Len(t, p.RelearningSteps, 2)
			},
		},
		{
			name:   "empty learning steps are allowed",
			config: ParamsConfig{LearningSteps: []time.Duration{}},
			check: func(t *testing.T, p *Params) {
				assert.Empty(t, p.LearningSteps)
			},
		},
		{name: "wrong weight count", config: ParamsConfig{Weights: []float64{1, 2, 3}}, wantErr: true},
		{name: "weight out of bounds", config: ParamsConfig{Weights: outOfBounds}, wantErr: true},
		{name: "retention of one", config: ParamsConfig{DesiredRetention: 1}, wantErr: true},
		{name: "negative retention", config: ParamsConfig{DesiredRetention: -0.2}, wantErr: true},
		{name: "negative maximum interval", config: ParamsConfig{MaximumInterval: -1}, wantErr: true},
		{name: "empty relearning steps", config: ParamsConfig{RelearningSteps: []time.Duration{}}, wantErr: true},
		{name: "non-positive step", config: ParamsConfig{LearningSteps: []time.Duration{time.Minute, 0}}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewParams(tc.config)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			tc.check(t, p)
		})
	}
}
