package transfer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ManifestFilename is the well-known name of the archive's table of
// contents inside the bundle.
const ManifestFilename = "manifest.json"

// ErrManifestMalformed indicates the archive manifest is absent, unparsable
// or fails its schema.
var ErrManifestMalformed = errors.New("malformed archive manifest")

const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "raw", "entities"],
  "properties": {
    "version": {"type": "string"},
    "raw": {"type": "string"},
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "is_draft", "size", "checksum"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "is_draft": {"type": "boolean"},
          "size": {"type": "integer", "minimum": 0},
          "checksum": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var compiledManifestSchema = jsonschema.MustCompileString(ManifestFilename, manifestSchema)

// ManifestEntity describes one stored entity the archive restores. Path is
// relative to the course root, without a leading slash, matching the
// entity's name inside the bundle.
type ManifestEntity struct {
	Path     string `json:"path"`
	IsDraft  bool   `json:"is_draft"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Manifest is the archive's source of truth: entities it does not list are
// not restored.
type Manifest struct {
	Version  string           `json:"version"`
	Raw      string           `json:"raw"`
	Entities []ManifestEntity `json:"entities"`
}

func parseManifest(data []byte) (*Manifest, error) {
	var raw interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	if err := compiledManifestSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	return &manifest, nil
}

func serializeManifest(manifest *Manifest) ([]byte, error) {
	if manifest.Entities == nil {
		manifest.Entities = []ManifestEntity{}
	}
	return json.MarshalIndent(manifest, "", "  ")
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
