// Package jsondoc reads the source document and turns each record into a typed event.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"ingest_orders/internal/domain/ingest"
)

// ReadFile loads the document at path, transparently decompressing *.gz files.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, &ingest.MalformedInputError{Err: fmt.Errorf("gzip header: %w", err)}
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// Load reads the document at path and splits it into raw records.
func Load(path string) ([]json.RawMessage, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse splits data into raw records. A top-level JSON array yields its elements;
// otherwise data is read as a sequence of JSON values separated by whitespace or a
// single comma, which covers newline-delimited files and comma-joined objects
// without an enclosing array.
func Parse(data []byte) ([]json.RawMessage, error) {
	start := skipSpace(data, 0)
	if start == len(data) {
		return nil, &ingest.EmptyInputError{}
	}

	var records []json.RawMessage
	if data[start] == '[' {
		dec := json.NewDecoder(bytes.NewReader(data[start:]))
		if err := dec.Decode(&records); err != nil {
			return nil, malformed(err, int64(start))
		}
		if end := skipSpace(data, start+int(dec.InputOffset())); end != len(data) {
			return nil, &ingest.MalformedInputError{
				Offset: int64(end),
				Err:    errors.New("unexpected data after top-level array"),
			}
		}
	} else {
		var err error
		records, err = parseSequence(data, start)
		if err != nil {
			return nil, err
		}
	}

	if len(records) == 0 {
		return nil, &ingest.EmptyInputError{}
	}
	return records, nil
}

func parseSequence(data []byte, off int) ([]json.RawMessage, error) {
	var records []json.RawMessage
	for off < len(data) {
		dec := json.NewDecoder(bytes.NewReader(data[off:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, malformed(err, int64(off))
		}
		records = append(records, raw)

		off = skipSpace(data, off+int(dec.InputOffset()))
		if off < len(data) && data[off] == ',' {
			off = skipSpace(data, off+1)
			if off == len(data) {
				return nil, &ingest.MalformedInputError{
					Offset: int64(off),
					Err:    errors.New("trailing comma after last record"),
				}
			}
		}
	}
	return records, nil
}

func malformed(err error, base int64) error {
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return &ingest.MalformedInputError{Offset: base + syntax.Offset, Err: err}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &ingest.MalformedInputError{Offset: base, Err: fmt.Errorf("truncated document: %w", err)}
	}
	return &ingest.MalformedInputError{Offset: base, Err: err}
}

func skipSpace(data []byte, i int) int {
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}
