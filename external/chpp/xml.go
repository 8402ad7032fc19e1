package chpp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseXMLDocument decodes a CHPP XML payload into a nested map keyed by
// element name. Repeated sibling elements collapse into a []any, attributes
// become plain keys, and leaf elements become their trimmed text content.
func parseXMLDocument(raw []byte) (map[string]any, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("document has no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("read xml token: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		value, err := decodeElement(decoder, start)
		if err != nil {
			return nil, err
		}
		root := map[string]any{}
		appendBagValue(root, start.Name.Local, value)
		return root, nil
	}
}

func decodeElement(decoder *xml.Decoder, start xml.StartElement) (any, error) {
	bag := map[string]any{}
	for _, attr := range start.Attr {
		appendBagValue(bag, attr.Name.Local, attr.Value)
	}

	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("read xml token inside <%s>: %w", start.Name.Local, err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			child, err := decodeElement(decoder, tok)
			if err != nil {
				return nil, err
			}
			appendBagValue(bag, tok.Name.Local, child)
		case xml.CharData:
			text.Write(tok)
		case xml.EndElement:
			if len(bag) == 0 {
				return strings.TrimSpace(text.String()), nil
			}
			return bag, nil
		}
	}
}

func appendBagValue(bag map[string]any, key string, value any) {
	existing, ok := bag[key]
	if !ok {
		bag[key] = value
		return
	}
	if list, isList := existing.([]any); isList {
		bag[key] = append(list, value)
		return
	}
	bag[key] = []any{existing, value}
}

func bagMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

// bagList normalizes a bag entry into a slice of maps: a single nested
// element decodes as one map, repeated elements as []any.
func bagList(value any) []map[string]any {
	switch typed := value.(type) {
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{typed}
	default:
		return nil
	}
}

func bagString(bag map[string]any, key string) string {
	value, ok := bag[key]
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return strings.TrimSpace(text)
}

func bagInt64(bag map[string]any, key string) (int64, bool) {
	text := bagString(bag, key)
	if text == "" {
		return 0, false
	}
	parsed, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func bagInt(bag map[string]any, key string) (int, bool) {
	parsed, ok := bagInt64(bag, key)
	return int(parsed), ok
}

func bagFloat(bag map[string]any, key string) (float64, bool) {
	text := bagString(bag, key)
	if text == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func bagBool(bag map[string]any, key string) (bool, bool) {
	switch strings.ToLower(bagString(bag, key)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}
