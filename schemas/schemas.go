// Package schemas embeds the JSON Schemas for the auditor's structured artifacts.
package schemas

import _ "embed"

// CandidateReportFile is the file name of the report schema in this directory.
const CandidateReportFile = "candidate_report.schema.json"

// CandidateReport is the JSON Schema every audit report must satisfy.
//
//go:embed candidate_report.schema.json
var CandidateReport string
