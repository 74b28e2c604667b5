package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSetLocation(t *testing.T) {
	r := Record{ID: "abc123", ImageURL: "https://farm1.staticflickr.com/2/abc123_s.jpg"}
	assert.False(t, r.HasLocation())

	require.True(t, r.SetLocation(48.85, 2.35))
	assert.True(t, r.HasLocation())
	assert.Equal(t, 48.85, *r.Latitude)
	assert.Equal(t, 2.35, *r.Longitude)

	assert.False(t, r.SetLocation(0, 0), "second call must not overwrite")
	assert.Equal(t, 48.85, *r.Latitude)
}
