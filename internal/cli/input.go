package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/catena/pkg/domain"
	"gopkg.in/yaml.v3"
)

// inputDocument is the file format accepted by --input: either a bare list of rows
// or an object naming the meta-object of the rows.
type inputDocument struct {
	Object string       `yaml:"object"`
	Rows   []domain.Row `yaml:"rows"`
}

// LoadInput reads rows from path ("-" for stdin). JSON and YAML are both accepted.
// An empty path yields a nil dataset.
func LoadInput(path, object string, stdin io.Reader) (*domain.Dataset, error) {
	if path == "" {
		if object == "" {
			return nil, nil
		}
		return domain.NewDataset(object), nil
	}

	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseInput(raw, object)
}

// ParseInput decodes rows from a JSON or YAML document.
// object overrides the object named in the document.
func ParseInput(raw []byte, object string) (*domain.Dataset, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.NewDataset(object), nil
	}

	var doc inputDocument
	if raw[0] == '[' || raw[0] == '-' {
		if err := yaml.Unmarshal(raw, &doc.Rows); err != nil {
			return nil, fmt.Errorf("invalid input rows: %w", err)
		}
	} else if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid input document: %w", err)
	}

	if object == "" {
		object = doc.Object
	}
	return domain.NewDataset(object, normalizeRows(doc.Rows)...), nil
}

// normalizeRows round trips the values through JSON so numbers and nested maps
// look the same whether they came from JSON or YAML.
func normalizeRows(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			out = append(out, r)
			continue
		}
		var n domain.Row
		if err := json.Unmarshal(b, &n); err != nil {
			out = append(out, r)
			continue
		}
		out = append(out, n)
	}
	return out
}
