package vocab

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/finlex/pkg/finlex/internalerr"
)

// Source yields dictionary entries. Implementations read files, databases
// or anything else; Load is called once at startup.
type Source interface {
	Load(ctx context.Context) ([]Entry, error)
}

// Load reads src and builds a Vocabulary. A source that yields no usable
// term is an error: the extractor cannot match anything against it.
func Load(ctx context.Context, src Source) (*Vocabulary, error) {
	entries, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	b := NewBuilder()
	for _, e := range entries {
		b.AddEntry(e)
	}
	v := b.Build()
	if v.Len() == 0 {
		return nil, internalerr.ErrEmptyVocabulary
	}
	return v, nil
}

// SourceForPath picks a file source by extension.
func SourceForPath(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVSource{Path: path}, nil
	case ".yaml", ".yml":
		return YAMLSource{Path: path}, nil
	case ".jsonl", ".ndjson":
		return JSONLSource{Path: path}, nil
	case ".html", ".htm":
		return HTMLSource{Path: path}, nil
	default:
		return nil, fmt.Errorf("vocabulary source %s: unsupported extension: %w", path, internalerr.ErrInvalidConfig)
	}
}

// CSVSource reads a CSV file with a header row. The "term" and
// "definition" columns are required, in any position; an optional
// "aliases" column holds pipe-separated alternatives.
type CSVSource struct {
	Path string
}

// Load implements Source.
func (s CSVSource) Load(ctx context.Context) ([]Entry, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	entries, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return entries, nil
}

// ReadCSV parses CSV dictionary rows from r.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header: %w", internalerr.ErrInvalidInput)
		}
		return nil, err
	}

	termCol, defCol, aliasCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "term":
			termCol = i
		case "definition":
			defCol = i
		case "aliases":
			aliasCol = i
		}
	}
	if termCol < 0 || defCol < 0 {
		return nil, fmt.Errorf("header must name term and definition columns: %w", internalerr.ErrInvalidInput)
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if termCol >= len(rec) || defCol >= len(rec) {
			line, _ := cr.FieldPos(0)
			slog.Warn("skipping short csv row", slog.Int("line", line))
			continue
		}
		e := Entry{Term: rec[termCol], Definition: rec[defCol]}
		if aliasCol >= 0 && aliasCol < len(rec) {
			e.Aliases = splitAliases(rec[aliasCol])
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func splitAliases(field string) []string {
	var out []string
	for _, a := range strings.Split(field, "|") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// YAMLSource reads a YAML document of the form:
//
//	terms:
//	  - term: ebitda
//	    definition: Earnings before interest, taxes, depreciation, and amortization.
//	    aliases: [earnings before interest taxes depreciation and amortization]
type YAMLSource struct {
	Path string
}

// Load implements Source.
func (s YAMLSource) Load(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Terms []Entry `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return doc.Terms, nil
}

// JSONLSource reads one JSON entry per line. Malformed lines are skipped
// with a warning.
type JSONLSource struct {
	Path string
}

// Load implements Source.
func (s JSONLSource) Load(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", s.Path, err)
	}

	var entries []Entry
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			slog.Warn("skipping malformed JSON line",
				slog.String("path", s.Path),
				slog.Int("line", i+1),
				slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid entries found in %s", s.Path)
	}
	return entries, nil
}

// StaticSource serves entries held in memory.
type StaticSource []Entry

// Load implements Source.
func (s StaticSource) Load(ctx context.Context) ([]Entry, error) {
	return []Entry(s), nil
}
