package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateReport_EmbeddedMatchesFile(t *testing.T) {
	data, err := os.ReadFile(CandidateReportFile)
	require.NoError(t, err)
	assert.Equal(t, string(data), CandidateReport)
}

func TestCandidateReport_ValidJSONSchema(t *testing.T) {
	var schemaObj map[string]any
	require.NoError(t, json.Unmarshal([]byte(CandidateReport), &schemaObj))

	assert.Equal(t, "object", schemaObj["type"])
	assert.Contains(t, schemaObj, "$schema")

	required, ok := schemaObj["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"candidate_name", "relevance_score", "key_findings", "resume_discrepancies", "summary"}, required)

	props := schemaObj["properties"].(map[string]any)
	score := props["relevance_score"].(map[string]any)
	assert.Equal(t, float64(1), score["minimum"])
	assert.Equal(t, float64(10), score["maximum"])
	findings := props["key_findings"].(map[string]any)
	assert.Equal(t, float64(3), findings["maxItems"])
}
