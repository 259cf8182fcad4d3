package course

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Course model schema versions. The serialized document and the archive
// manifest both carry one of these.
const (
	ModelVersion12 = "1.2"
	ModelVersion13 = "1.3"
)

// DocumentPath is the well-known location of the serialized course tree.
const DocumentPath = "/data/course.json"

// ErrDocumentMalformed indicates the serialized course tree failed to parse
// or did not match the document schema.
var ErrDocumentMalformed = errors.New("malformed course document")

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "next_id", "units", "lessons"],
  "properties": {
    "version": {"type": "string"},
    "next_id": {"type": "integer", "minimum": 1},
    "units": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "title"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "type": {"enum": ["U", "O", "A"]},
          "title": {"type": "string"}
        }
      }
    },
    "lessons": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "unit_id", "title"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "unit_id": {"type": "integer", "minimum": 1},
          "title": {"type": "string"}
        }
      }
    }
  }
}`

var compiledDocumentSchema = jsonschema.MustCompileString("course.json", documentSchema)

// document is the on-disk form of the course tree. Slice order is the tree
// order; there is no separate ordering list.
type document struct {
	Version string    `json:"version"`
	NextID  int       `json:"next_id"`
	Units   []*Unit   `json:"units"`
	Lessons []*Lesson `json:"lessons"`
}

func parseDocument(data []byte) (*document, error) {
	var raw interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentMalformed, err)
	}
	if err := compiledDocumentSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentMalformed, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentMalformed, err)
	}
	return &doc, nil
}

// ValidateDocument checks that data parses as a serialized course tree
// without loading it into a course.
func ValidateDocument(data []byte) error {
	_, err := parseDocument(data)
	return err
}

func serializeDocument(doc *document) ([]byte, error) {
	if doc.Units == nil {
		doc.Units = []*Unit{}
	}
	if doc.Lessons == nil {
		doc.Lessons = []*Lesson{}
	}
	return json.MarshalIndent(doc, "", "  ")
}
