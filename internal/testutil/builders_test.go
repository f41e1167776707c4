package testutil

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGDataURL(t *testing.T) {
	u := PNGDataURL(64)
	require.True(t, strings.HasPrefix(u, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.Equal(t, pngHeader, raw[:8])
}

func TestDataURLOfLength(t *testing.T) {
	assert.Len(t, DataURLOfLength(1024), 1024)
}

func TestAuditBuilder(t *testing.T) {
	a := NewAudit("a1").Page("https://shop.example", "Shop").Build()
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "Shop", a.PageTitle)
	assert.Equal(t, TestTime(), a.CreatedAt)
}
