package vocab

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/finlex/pkg/finlex/internalerr"
)

// Output formats accepted by Write.
const (
	FormatCSV   = "csv"
	FormatYAML  = "yaml"
	FormatJSONL = "jsonl"
)

// FormatForPath picks an output format by extension. The result is
// readable again by SourceForPath.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("export %s: unsupported extension: %w", path, internalerr.ErrInvalidConfig)
	}
}

// Write encodes entries to w in format.
func Write(w io.Writer, format string, entries []Entry) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatYAML, "yml":
		return WriteYAML(w, entries)
	case FormatJSONL, "ndjson":
		return WriteJSONL(w, entries)
	default:
		return fmt.Errorf("export format %q: %w", format, internalerr.ErrInvalidConfig)
	}
}

// WriteCSV writes a term,definition,aliases header followed by one row per
// entry, aliases pipe-separated.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"term", "definition", "aliases"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Term, e.Definition, strings.Join(e.Aliases, "|")}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYAML writes the document shape YAMLSource reads.
func WriteYAML(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := struct {
		Terms []Entry `yaml:"terms"`
	}{Terms: entries}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
