package synthesis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/lueurxax/idea-miner/internal/core/domain"
	coreerrors "github.com/lueurxax/idea-miner/internal/core/errors"
)

//go:embed idea.schema.json
var ideaSchemaJSON string

const (
	codeFence     = "```"
	rootFieldName = "(root)"
)

// Parser validates raw model output against the idea schema.
type Parser struct {
	schema   *gojsonschema.Schema
	validate *validator.Validate
}

// NewParser compiles the embedded schema.
func NewParser() (*Parser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(ideaSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile idea schema: %w", err)
	}

	return &Parser{
		schema:   schema,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Parse turns a model answer into idea fields. The answer must be exactly one JSON object,
// optionally inside a markdown code fence. Every failure wraps ErrMalformedSynthesisOutput.
func (p *Parser) Parse(content string) (domain.IdeaFields, error) {
	doc := StripCodeFence(content)
	if doc == "" {
		return domain.IdeaFields{}, malformed("empty response")
	}

	result, err := p.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return domain.IdeaFields{}, malformed("not a JSON document: %v", err)
	}

	if !result.Valid() {
		return domain.IdeaFields{}, malformed("%s", describeSchemaErrors(result.Errors()))
	}

	var fields domain.IdeaFields
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return domain.IdeaFields{}, malformed("decode: %v", err)
	}

	fields = trimFields(fields)

	if err := p.validate.Struct(fields); err != nil {
		return domain.IdeaFields{}, malformed("%v", err)
	}

	return fields, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence. Text outside the fence is
// left in place so it fails the schema check.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, codeFence) || !strings.HasSuffix(s, codeFence) || len(s) < 2*len(codeFence) {
		return s
	}

	s = strings.TrimSuffix(strings.TrimPrefix(s, codeFence), codeFence)

	// drop the info string, e.g. "json"
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
		s = s[nl+1:]
	}

	return strings.TrimSpace(s)
}

func describeSchemaErrors(errs []gojsonschema.ResultError) string {
	parts := make([]string, 0, len(errs))

	for _, desc := range errs {
		field := desc.Field()
		if field == "" {
			field = rootFieldName
		}

		parts = append(parts, field+": "+desc.Description())
	}

	return strings.Join(parts, "; ")
}

func trimFields(f domain.IdeaFields) domain.IdeaFields {
	return domain.IdeaFields{
		Title:        strings.TrimSpace(f.Title),
		Thesis:       strings.TrimSpace(f.Thesis),
		TechStack:    strings.TrimSpace(f.TechStack),
		Monetization: strings.TrimSpace(f.Monetization),
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", coreerrors.ErrMalformedSynthesisOutput, fmt.Sprintf(format, args...))
}
