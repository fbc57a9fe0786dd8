package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_DefaultsToSha256Hex(t *testing.T) {
	out := eval(t, "hello", map[string]any{"hash": nil})
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", out)
}

func TestHash_AlgorithmAndEncoding(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592",
		eval(t, "hello", map[string]any{"hash": "md5"}))
	assert.Equal(t, "LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ=",
		eval(t, "hello", map[string]any{"hash": map[string]any{"algorithm": "sha256", "encoding": "base64"}}))
}

func TestHash_NonStringInputSerialized(t *testing.T) {
	// {"a":1} digested as its JSON form.
	out := eval(t, map[string]any{"a": 1}, map[string]any{"hash": nil})
	want := eval(t, `{"a":1}`, map[string]any{"hash": nil})
	assert.Equal(t, want, out)
}

func TestHash_UnsupportedAlgorithmErrors(t *testing.T) {
	_, err := NewEvaluator(nil).Apply(context.Background(), "x", map[string]any{"hash": "crc32"})
	require.Error(t, err)
}

func TestBase64_RoundTrip(t *testing.T) {
	enc := eval(t, "hello world", map[string]any{"toBase64": nil})
	assert.Equal(t, "aGVsbG8gd29ybGQ=", enc)
	assert.Equal(t, "hello world", eval(t, enc, map[string]any{"fromBase64": nil}))
}

func TestFromBase64_InvalidIsNull(t *testing.T) {
	assert.Nil(t, eval(t, "!!!not base64!!!", map[string]any{"fromBase64": nil}))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		arg   any
		want  any
	}{
		{"rfc3339", "2024-03-01T12:30:00Z", nil, "2024-03-01T12:30:00Z"},
		{"date only", "2024-03-01", nil, "2024-03-01T00:00:00Z"},
		{"space separated", "2024-03-01 12:30:00", nil, "2024-03-01T12:30:00Z"},
		{"unix seconds", 1709296200, nil, "2024-03-01T12:30:00Z"},
		{"explicit layout", "01/03/2024", "02/01/2006", "2024-03-01T00:00:00Z"},
		{"unparseable", "not a date", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var arg map[string]any
			if tt.arg != nil {
				arg = map[string]any{"parseDate": map[string]any{"format": tt.arg}}
			} else {
				arg = map[string]any{"parseDate": nil}
			}
			assert.Equal(t, tt.want, eval(t, tt.input, arg))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "01/03/2024",
		eval(t, "2024-03-01T12:30:00Z", map[string]any{"formatDate": "02/01/2006"}))
	assert.Equal(t, int64(1709296200),
		eval(t, "2024-03-01T12:30:00Z", map[string]any{"formatDate": "unix"}))
	assert.Equal(t, "2024-03-01",
		eval(t, 1709296200, map[string]any{"formatDate": "2006-01-02"}))
	assert.Nil(t, eval(t, "garbage", map[string]any{"formatDate": "2006"}))
}

func TestFormatDate_MissingFormatErrors(t *testing.T) {
	_, err := NewEvaluator(nil).Apply(context.Background(), "2024-03-01T00:00:00Z",
		map[string]any{"formatDate": nil})
	require.Error(t, err)
}
