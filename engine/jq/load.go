package jq

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const maxLineSize = 1024 * 1024

// load streams the records of a fixture file. The file is opened when the
// sequence is first ranged over, not when the script is prepared.
func (s *script) load(stmt *statement) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		f, err := s.fs.Open(stmt.path)
		if err != nil {
			yield(nil, fmt.Errorf("%s (line %d): %w", stmt.alias, stmt.line, err))
			return
		}
		defer f.Close()

		var decode func(io.Reader, func(any, error) bool)

		switch strings.ToLower(filepath.Ext(stmt.path)) {
		case ".json":
			decode = decodeJSON
		case ".jsonl", ".ndjson":
			decode = decodeJSONLines
		case ".yaml", ".yml":
			decode = decodeYAML
		default:
			decode = decodeText
		}

		decode(f, func(value any, err error) bool {
			if err != nil {
				return yield(nil, fmt.Errorf("%s (line %d): %s: %w", stmt.alias, stmt.line, stmt.path, err))
			}

			return yield(value, nil)
		})
	}
}

// spread yields each element of a top-level array, or the value itself.
func spread(value any, yield func(any, error) bool) bool {
	items, ok := value.([]any)
	if !ok {
		return yield(value, nil)
	}

	for _, item := range items {
		if !yield(item, nil) {
			return false
		}
	}

	return true
}

func decodeJSON(r io.Reader, yield func(any, error) bool) {
	var value any
	if err := json.NewDecoder(r).Decode(&value); err != nil {
		yield(nil, err)
		return
	}

	spread(value, yield)
}

func decodeJSONLines(r io.Reader, yield func(any, error) bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var value any
		if err := json.Unmarshal([]byte(line), &value); err != nil {
			yield(nil, fmt.Errorf("record %d: %w", lineNo, err))
			return
		}

		if !yield(value, nil) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		yield(nil, err)
	}
}

func decodeYAML(r io.Reader, yield func(any, error) bool) {
	decoder := yaml.NewDecoder(r)

	for {
		var value any
		if err := decoder.Decode(&value); err != nil {
			if !errors.Is(err, io.EOF) {
				yield(nil, err)
			}
			return
		}

		if !spread(normalize(value), yield) {
			return
		}
	}
}

// decodeText yields one record per line, with fields split on tabs.
func decodeText(r io.Reader, yield func(any, error) bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")

		fields := make([]any, len(parts))
		for i, part := range parts {
			fields[i] = part
		}

		if !yield(fields, nil) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		yield(nil, err)
	}
}

// normalize converts YAML-decoded values into the types gojq accepts.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case int64:
		return int(v)
	case uint64:
		return float64(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}
