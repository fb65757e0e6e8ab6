package models

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

type DocumentFormat string

const (
	FormatJSON DocumentFormat = "json"
	FormatYAML DocumentFormat = "yaml"
)

// DetectFormat picks a format from a file name or content type. JSON is the fallback.
func DetectFormat(name, contentType string) DocumentFormat {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// ParseDocument decodes a quiz document. YAML input is mapped onto the JSON model so both
// formats share field names.
func ParseDocument(data []byte, format DocumentFormat) (*QuizDocument, error) {
	if format == FormatYAML {
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml document: %w", err)
		}
		converted, err := json.Marshal(jsonCompatible(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to convert yaml document: %w", err)
		}
		data = converted
	}

	var doc QuizDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse json document: %w", err)
	}
	return &doc, nil
}

func jsonCompatible(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}
