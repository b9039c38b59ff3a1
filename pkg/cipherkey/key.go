// Package cipherkey reads homophonic cipher key files and inverts the
// letter → token id key into a token id → letter lookup.
//
// A key file carries three members:
//
//	{
//	  "plaintext":  "cat",
//	  "ciphertext": "5 12 5",
//	  "key":        {"c": [5], "a": [12], "t": [5]}
//	}
//
// The member order of "key" is significant: when one id is listed under
// several letters, the letter that appears last in the file wins. Both
// decoders in this package therefore keep file order instead of going
// through a Go map.
package cipherkey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Key file member names.
const (
	FieldPlaintext  = "plaintext"
	FieldCiphertext = "ciphertext"
	FieldKey        = "key"
)

// LetterIDs is one entry of the cipher key: a plaintext letter and the
// token ids that encipher it, in file order.
type LetterIDs struct {
	Letter string
	IDs    []string
}

// Key is a parsed key file.
type Key struct {
	Plaintext  string
	Ciphertext string

	// Letters holds the key entries in the order they appear in the file.
	Letters []LetterIDs

	// Path is the file the key was read from, if any.
	Path string

	present map[string]bool
}

// Has reports whether the named member was present in the key file.
func (k *Key) Has(field string) bool {
	return k.present[field]
}

// Require returns a KEY_FIELD_MISSING error naming the first absent field.
func (k *Key) Require(fields ...string) error {
	for _, f := range fields {
		if !k.present[f] {
			err := werrors.Inputf(werrors.ErrKeyFieldMissing, "key file has no %q field", f).
				WithContext("field", f)
			if k.Path != "" {
				err.WithContext("path", k.Path)
			}
			return werrors.AttachSuggestions(err)
		}
	}
	return nil
}

// PlaintextSymbols splits the plaintext into single characters.
func (k *Key) PlaintextSymbols() []string {
	runes := []rune(k.Plaintext)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// CiphertextTokens splits the ciphertext on whitespace.
func (k *Key) CiphertextTokens() []string {
	return strings.Fields(k.Ciphertext)
}

// Load reads a key file. The format is chosen by extension: .yaml and .yml
// are read as YAML, everything else as JSON.
func Load(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, werrors.AttachSuggestions(werrors.FileNotFound(path, err))
		}
		return nil, werrors.ReadFailed(path, err)
	}

	var key *Key
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		key, err = ParseYAML(data)
	default:
		key, err = ParseJSON(data)
	}
	if err != nil {
		if ge, ok := werrors.AsGlyphError(err); ok {
			ge.WithContext("path", path)
		}
		return nil, err
	}
	key.Path = path
	return key, nil
}

func newKey() *Key {
	return &Key{present: make(map[string]bool)}
}

func parseError(cause error, format string, args ...interface{}) error {
	return werrors.AttachSuggestions(
		werrors.Inputf(werrors.ErrKeyParseFailed, format, args...).WithCause(cause))
}

func typeError(field, want string) error {
	return werrors.AttachSuggestions(
		werrors.Inputf(werrors.ErrKeyFieldType, "%q must be %s", field, want).
			WithContext("field", field))
}

// -----------------------------------------------------------------------------
// JSON
// -----------------------------------------------------------------------------

// ParseJSON decodes a JSON key file.
func ParseJSON(data []byte) (*Key, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, parseError(err, "key file is not a JSON object")
	}

	key := newKey()

	for _, field := range []string{FieldPlaintext, FieldCiphertext} {
		raw, ok := top[field]
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, typeError(field, "a string")
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, typeError(field, "a string")
		}
		if field == FieldPlaintext {
			key.Plaintext = s
		} else {
			key.Ciphertext = s
		}
		key.present[field] = true
	}

	if raw, ok := top[FieldKey]; ok {
		letters, err := decodeJSONKey(raw)
		if err != nil {
			return nil, err
		}
		key.Letters = letters
		key.present[FieldKey] = true
	}

	return key, nil
}

// decodeJSONKey walks the "key" object token by token to keep member order.
func decodeJSONKey(raw json.RawMessage) ([]LetterIDs, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, parseError(err, "failed to read %q", FieldKey)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, typeError(FieldKey, "an object of letter → id list")
	}

	var letters []LetterIDs
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, parseError(err, "failed to read %q", FieldKey)
		}
		letter := tok.(string) // object keys are always strings

		var values []interface{}
		if err := dec.Decode(&values); err != nil {
			return nil, typeError(FieldKey+"."+letter, "a list of ids")
		}

		ids := make([]string, 0, len(values))
		for _, v := range values {
			switch id := v.(type) {
			case json.Number:
				ids = append(ids, id.String())
			case string:
				ids = append(ids, id)
			default:
				return nil, typeError(FieldKey+"."+letter, "a list of integers or strings")
			}
		}
		letters = append(letters, LetterIDs{Letter: letter, IDs: ids})
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, parseError(err, "failed to read %q", FieldKey)
	}
	return letters, nil
}

// -----------------------------------------------------------------------------
// YAML
// -----------------------------------------------------------------------------

// ParseYAML decodes a YAML key file through a node tree so mapping order is
// kept. JSON documents are valid input as well.
func ParseYAML(data []byte) (*Key, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseError(err, "key file is not valid YAML")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, parseError(fmt.Errorf("top-level node is not a mapping"), "key file is not a mapping")
	}

	key := newKey()
	top := doc.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		name, value := top.Content[i].Value, top.Content[i+1]
		switch name {
		case FieldPlaintext, FieldCiphertext:
			if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
				return nil, typeError(name, "a string")
			}
			if name == FieldPlaintext {
				key.Plaintext = value.Value
			} else {
				key.Ciphertext = value.Value
			}
			key.present[name] = true
		case FieldKey:
			letters, err := decodeYAMLKey(value)
			if err != nil {
				return nil, err
			}
			key.Letters = letters
			key.present[FieldKey] = true
		}
	}
	return key, nil
}

func decodeYAMLKey(node *yaml.Node) ([]LetterIDs, error) {
	if node.Kind != yaml.MappingNode {
		return nil, typeError(FieldKey, "a mapping of letter → id list")
	}

	letters := make([]LetterIDs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		letter, list := node.Content[i].Value, node.Content[i+1]
		if list.Kind != yaml.SequenceNode {
			return nil, typeError(FieldKey+"."+letter, "a list of ids")
		}
		ids := make([]string, 0, len(list.Content))
		for _, item := range list.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, typeError(FieldKey+"."+letter, "a list of integers or strings")
			}
			switch item.ShortTag() {
			case "!!int", "!!str":
			default:
				return nil, typeError(FieldKey+"."+letter, "a list of integers or strings")
			}
			ids = append(ids, item.Value)
		}
		letters = append(letters, LetterIDs{Letter: letter, IDs: ids})
	}
	return letters, nil
}
