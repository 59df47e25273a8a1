package state

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// stateSchema describes the durable state file. Verify is a diagnostic for
// strict mode; normal reads stay tolerant of anything unparsable.
const stateSchema = `{
  "type": "object",
  "required": ["results", "dependencies"],
  "properties": {
    "results": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["passed", "timestamp"],
        "properties": {
          "passed": {"type": "boolean"},
          "error": {"type": "string"},
          "timestamp": {"type": "number"}
        },
        "additionalProperties": false
      }
    },
    "dependencies": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    }
  },
  "additionalProperties": false
}`

// Verify validates the on-disk state file against the store schema. A
// missing file is valid (the run may not have initialized yet).
func (s *Store) Verify() error {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(stateSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate state file: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("state file %s is invalid: %s", s.Path(), strings.Join(msgs, "; "))
	}
	return nil
}
