package jsondoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingest_orders/internal/domain/ingest"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "array", input: `[{"a":1},{"a":2}]`, want: 2},
		{name: "array with whitespace", input: "\n  [ {\"a\":1} ]\n", want: 1},
		{name: "single object", input: `{"a":1}`, want: 1},
		{name: "newline delimited", input: "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n", want: 3},
		{name: "comma joined objects", input: `{"a":1},{"a":2}`, want: 2},
		{name: "comma joined across lines", input: "{\"a\":1},\n{\"a\":2}\n", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestParse_KeepsRecordBytes(t *testing.T) {
	records, err := Parse([]byte(`{"a":1} {"b":[2]}`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
	assert.JSONEq(t, `{"b":[2]}`, string(records[1]))
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n", "[]", " [ ] "} {
		_, err := Parse([]byte(input))
		var empty *ingest.EmptyInputError
		assert.ErrorAs(t, err, &empty, "input %q", input)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "truncated array", input: `[{"a":1},`},
		{name: "truncated object", input: `{"a":`},
		{name: "garbage", input: `not json`},
		{name: "bad token in sequence", input: `{"a":1} {"b":tru}`},
		{name: "data after array", input: `[{"a":1}] {"b":2}`},
		{name: "trailing comma", input: `{"a":1},`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			var malformed *ingest.MalformedInputError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestParse_MalformedOffsetPointsIntoSecondRecord(t *testing.T) {
	_, err := Parse([]byte(`{"a":1} {"b":tru}`))
	var malformed *ingest.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Greater(t, malformed.Offset, int64(8))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`[{"event_name":"order_created"}]`)

	plain := filepath.Join(dir, "orders.json")
	require.NoError(t, os.WriteFile(plain, content, 0o600))

	compressed := filepath.Join(dir, "orders.json.gz")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, compressed} {
		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	notGzip := filepath.Join(dir, "orders.json.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte(`[]`), 0o600))
	_, err = ReadFile(notGzip)
	var malformed *ingest.MalformedInputError
	assert.ErrorAs(t, err, &malformed)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "orders.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"event_name\":\"a\"}\n{\"event_name\":\"b\"}\n"), 0o600))
	records, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = Load(empty)
	var emptyErr *ingest.EmptyInputError
	assert.ErrorAs(t, err, &emptyErr)
}
