// Package llm - schema.go describes structured-output schemas shared by prompts and providers.
package llm

import (
	"fmt"
	"strings"
)

// Field types understood by OutputSchema
const (
	FieldString      = "string"
	FieldInteger     = "integer"
	FieldStringArray = "[]string"
)

// OutputSchema defines the structure the model's final answer must follow.
type OutputSchema struct {
	Name        string        // Schema name (e.g., "CandidateReport")
	Description string        // What the structure represents
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the structured output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // FieldString, FieldInteger or FieldStringArray
	Description string // Description for the LLM
	Required    bool
}

// IsZero reports whether the schema declares no fields.
func (s OutputSchema) IsZero() bool {
	return len(s.Fields) == 0
}

// BuildSchemaPrompt renders the schema as instructions appended to a finalizing turn.
func BuildSchemaPrompt(schema OutputSchema) string {
	var sb strings.Builder

	if schema.Description != "" {
		sb.WriteString(schema.Description)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		switch typeHint {
		case "", FieldString:
			typeHint = `"string"`
		case FieldStringArray:
			typeHint = `["string"]`
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")
	sb.WriteString("Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	return sb.String()
}

// CandidateReportSchema returns the output schema for a candidate audit report.
func CandidateReportSchema() OutputSchema {
	return OutputSchema{
		Name:        "CandidateReport",
		Description: "The final audit report for one candidate.",
		Fields: []SchemaField{
			{
				Name:        "candidate_name",
				Type:        FieldString,
				Description: "Full name of the audited candidate",
				Required:    true,
			},
			{
				Name:        "relevance_score",
				Type:        FieldInteger,
				Description: "Fit for the target role from 1 (poor) to 10 (excellent)",
				Required:    true,
			},
			{
				Name:        "key_findings",
				Type:        FieldStringArray,
				Description: "At most 3 of the most important verified or contradicted facts",
				Required:    true,
			},
			{
				Name:        "resume_discrepancies",
				Type:        FieldStringArray,
				Description: "Résumé claims contradicted by evidence (dates, skills, company roles); empty if none or no résumé",
				Required:    true,
			},
			{
				Name:        "summary",
				Type:        FieldString,
				Description: "Short professional but critical assessment",
				Required:    true,
			},
		},
	}
}
