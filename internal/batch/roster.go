package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-auditor/internal/types"
)

// Accepted header spellings per roster column.
var (
	nameHeaders   = []string{"name", "candidate", "candidate_name"}
	roleHeaders   = []string{"role", "target_role", "position"}
	resumeHeaders = []string{"resume", "resume_path", "document"}
)

// ErrEmptyRoster is returned for a roster with a header but no candidates.
var ErrEmptyRoster = errors.New("roster has no candidates")

// LoadRosterFile reads a CSV roster. Relative résumé paths are resolved against the roster's directory.
func LoadRosterFile(path string) ([]types.CandidateRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	reqs, err := LoadRoster(f)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range reqs {
		if reqs[i].ResumePath != "" && !filepath.IsAbs(reqs[i].ResumePath) {
			reqs[i].ResumePath = filepath.Join(dir, reqs[i].ResumePath)
		}
	}
	return reqs, nil
}

// LoadRoster parses a CSV roster with required name and role columns and an
// optional résumé column. Rows are returned in file order, including rows with
// blank fields, so the output keeps one row per input line.
func LoadRoster(r io.Reader) ([]types.CandidateRequest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyRoster
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	nameCol := findColumn(header, nameHeaders)
	roleCol := findColumn(header, roleHeaders)
	resumeCol := findColumn(header, resumeHeaders)
	if nameCol < 0 || roleCol < 0 {
		return nil, fmt.Errorf("header must contain %q and %q columns, got %v", "name", "role", header)
	}

	var reqs []types.CandidateRequest
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(reqs)+2, err)
		}
		if isBlank(record) {
			continue
		}
		reqs = append(reqs, types.CandidateRequest{
			Name:       field(record, nameCol),
			TargetRole: field(record, roleCol),
			ResumePath: field(record, resumeCol),
		})
	}

	if len(reqs) == 0 {
		return nil, ErrEmptyRoster
	}
	return reqs, nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func field(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
