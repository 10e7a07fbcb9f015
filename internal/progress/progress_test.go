// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	bar := NewWithWriter(3, DescConverting, &buf)
	require.NoError(t, bar.Add(1))
	assert.Equal(t, int64(3), bar.GetMax64())
	assert.Contains(t, buf.String(), DescConverting)
}

func TestNew_Disabled(t *testing.T) {
	bar := New(2, DescCombining, false)
	require.NoError(t, bar.Add(2))
	assert.True(t, bar.IsFinished())
}
