package format

import (
	"bytes"
	"html/template"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1234567, "1.18 MB"},
		{1 << 30, "1 GB"},
		{5 << 40, "5120 GB"},
		{-2048, "-2 KB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bytes(tt.in), "Bytes(%d)", tt.in)
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "0", Number(0))
	assert.Equal(t, "999", Number(999))
	assert.Equal(t, "1,234,567", Number(1234567))
	assert.Equal(t, "-42,000", Number(-42000))
	assert.Equal(t, "1,234.5", Number(1234.5))
	assert.Equal(t, "NaN", Number(math.NaN()))
	assert.Equal(t, "∞", Number(math.Inf(1)))
}

func TestDate(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 5, 1, 15, 4, 5, 0, loc), "2024/5/1 下午3:04:05"},
		{time.Date(2024, 12, 25, 9, 30, 0, 0, loc), "2024/12/25 上午9:30:00"},
		{time.Date(2024, 1, 1, 0, 0, 7, 0, loc), "2024/1/1 上午12:00:07"},
		{time.Date(2024, 1, 1, 12, 15, 0, 0, loc), "2024/1/1 下午12:15:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Date(tt.in))
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-05-01T15:04:05+08:00")
	require.NoError(t, err)
	assert.Equal(t, "2024/5/1 下午3:04:05", Date(got))

	got, err = ParseDate("2024-05-01T10:00:00.123456")
	require.NoError(t, err)
	assert.Equal(t, time.Local, got.Location())
	assert.Equal(t, 10, got.Hour())

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}

func TestFuncMap(t *testing.T) {
	tmpl := template.Must(template.New("t").Funcs(FuncMap()).Parse(
		`{{formatNumber .Count}}|{{formatBytes .Size}}|{{formatDate .At}}`))

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, map[string]any{
		"Count": 12345,
		"Size":  int64(1536),
		"At":    "2024-05-01T15:04:05+08:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "12,345|1.5 KB|2024/5/1 下午3:04:05", buf.String())

	err = tmpl.Execute(&buf, map[string]any{"Count": "many", "Size": 1, "At": "x"})
	assert.Error(t, err)
}
