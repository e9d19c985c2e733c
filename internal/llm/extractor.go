package llm

import (
	"fmt"
	"strings"

	"github.com/jonathan/clip-curator/internal/prompts"
)

// ExtractionSchema defines what an extraction prompt asks the model to return.
type ExtractionSchema struct {
	Name        string
	Description string
	Fields      []SchemaField
	// Rules are listed under IMPORTANT after the structure
	Rules string
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string
	Required    bool
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		fmt.Fprintf(&sb, "  %q: %s%s", field.Name, typeHint, requiredHint)
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	if schema.Rules != "" {
		sb.WriteString(strings.TrimRight(schema.Rules, "\n"))
		sb.WriteString("\n")
	}
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation.\n\n")

	sb.WriteString("Request:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// PromptDescriptorSchema asks for the theme keywords and single vibe of a clip
// request. themes and vibes list the words clip tags are written with.
func PromptDescriptorSchema(themes, vibes []string) ExtractionSchema {
	return ExtractionSchema{
		Name: "PromptDescriptor",
		Description: prompts.Format(prompts.MustGet(prompts.Extraction, "descriptor-description"), map[string]string{
			"Themes": strings.Join(themes, ", "),
			"Vibes":  strings.Join(vibes, ", "),
		}),
		Rules: prompts.MustGet(prompts.Extraction, "descriptor-rules"),
		Fields: []SchemaField{
			{
				Name:        "themes",
				Type:        `["string"]`,
				Description: "subjects, places and activities the clips should show",
				Required:    true,
			},
			{
				Name:        "vibe",
				Type:        `"string"`,
				Description: "one word for the overall feel",
				Required:    true,
			},
		},
	}
}
