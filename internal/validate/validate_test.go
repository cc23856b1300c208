// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Limit int `yaml:"limit" validate:"gte=0"`
}

type sample struct {
	Name  string  `yaml:"name" validate:"required"`
	Ratio float64 `yaml:"ratio,omitempty" validate:"gte=0,lte=1"`
	Inner inner   `yaml:"inner"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "ok", Ratio: 0.5}))

	err := Struct(sample{Ratio: 2, Inner: inner{Limit: -1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name: required")
	assert.Contains(t, err.Error(), "ratio: must be lte 1")
	assert.Contains(t, err.Error(), "inner.limit: must be gte 0")
}

func TestGetIsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}
