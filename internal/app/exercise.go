package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Exercise is a multi-part submission read from a JSON file.
type Exercise struct {
	UserID    string         `json:"user_id"`
	SubjectID string         `json:"subject_id"`
	Hints     int            `json:"hints"`
	Items     []ExerciseItem `json:"items"`
}

// ExerciseItem is one part of an exercise. Answer is a plain string or a
// structured {"final": ..., "steps": [...]} object.
type ExerciseItem struct {
	ID      string         `json:"id"`
	SkillID string         `json:"skill_id"`
	Kind    string         `json:"kind,omitempty"`
	Problem map[string]any `json:"problem"`
	Answer  any            `json:"answer"`
}

const exerciseSchemaURL = "schema://exercise.json"

const exerciseSchema = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "user_id": {"type": "string"},
    "subject_id": {"type": "string"},
    "hints": {"type": "integer", "minimum": 0},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "skill_id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "skill_id": {"type": "string"},
          "kind": {"type": "string"},
          "problem": {"type": "object"},
          "answer": {"type": ["string", "number", "object", "array", "null"]}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledExerciseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(strings.NewReader(exerciseSchema))
		if err != nil {
			schemaErr = fmt.Errorf("parse exercise schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(exerciseSchemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add exercise schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(exerciseSchemaURL)
	})
	return schema, schemaErr
}

// LoadExercise reads and validates an exercise document.
func LoadExercise(r io.Reader) (*Exercise, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read exercise: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := compiledExerciseSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid exercise: %w", err)
	}

	var ex Exercise
	if err := json.Unmarshal(raw, &ex); err != nil {
		return nil, fmt.Errorf("decode exercise: %w", err)
	}
	return &ex, nil
}
