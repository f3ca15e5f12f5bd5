package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/cv-ranker/internal/ai"
)

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func mustSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile response schema: %v", err))
	}
	return schema
}

// parseDocument strips code fences from a model reply, checks it against the
// schema and returns the decoded object.
// Malformed replies are transient: the model may answer correctly on retry.
func parseDocument(raw string, schema *gojsonschema.Schema) (string, map[string]any, error) {
	cleaned := extractJSON(raw)
	if !gjson.Valid(cleaned) {
		return "", nil, ai.Transient(errors.New("gemini response is not valid json"))
	}
	if !gjson.Parse(cleaned).IsObject() {
		return "", nil, ai.Transient(errors.New("gemini response is not a json object"))
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return "", nil, ai.Transient(fmt.Errorf("validate gemini response: %w", err))
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			issues = append(issues, issue.String())
		}
		return "", nil, ai.Transient(fmt.Errorf("gemini response does not match schema: %s", strings.Join(issues, "; ")))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return "", nil, ai.Transient(fmt.Errorf("parse gemini response: %w", err))
	}
	return cleaned, data, nil
}

func decodeInto(data map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(data); err != nil {
		return ai.Transient(fmt.Errorf("decode gemini response: %w", err))
	}
	return nil
}

func buildPrompt(template string, values map[string]string) string {
	prompt := template
	for key, value := range values {
		prompt = strings.ReplaceAll(prompt, "{{"+key+"}}", value)
	}
	return prompt
}
