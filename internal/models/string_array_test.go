package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStringArray(t *testing.T) {
	assert.Equal(t, StringArray{"go", "seo"}, NewStringArray([]string{" go", "", "seo", "go "}))
	assert.Equal(t, StringArray{}, NewStringArray(nil))
}

func TestStringArray_ScanValue(t *testing.T) {
	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var a StringArray
	require.NoError(t, a.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringArray{"a", "b"}, a)

	require.NoError(t, a.Scan("null"))
	assert.Equal(t, StringArray{}, a)

	assert.Error(t, a.Scan(42))
}
