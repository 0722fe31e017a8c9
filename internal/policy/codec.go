package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported document format %q", s)
}

// Encode writes doc in the given format. JSON is indented with four spaces.
func Encode(doc Document, f Format) ([]byte, error) {
	if doc.Blocks == nil {
		doc.Blocks = []Record{}
	}
	switch f {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "    ")
	case FormatYAML:
		return yaml.Marshal(doc)
	}
	return nil, fmt.Errorf("unsupported document format %q", f)
}

// Decode reads a document. JSON numbers are kept as json.Number until the
// blocks are built, so oversized integers fail instead of being rounded.
func Decode(data []byte, f Format) (Document, error) {
	var doc Document
	var err error
	switch f {
	case FormatJSON:
		err = decodeJSON(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return Document{}, fmt.Errorf("unsupported document format %q", f)
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc, nil
}

func decodeJSON(data []byte, doc *Document) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(doc); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after document")
	}
	return nil
}

func EncodeJSON(doc Document) ([]byte, error) { return Encode(doc, FormatJSON) }
func DecodeJSON(data []byte) (Document, error) { return Decode(data, FormatJSON) }
func EncodeYAML(doc Document) ([]byte, error) { return Encode(doc, FormatYAML) }
func DecodeYAML(data []byte) (Document, error) { return Decode(data, FormatYAML) }
