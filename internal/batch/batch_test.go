package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/resume-auditor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuditor completes each candidate after a per-name delay; names in fail get a failure.
type fakeAuditor struct {
	delays   map[string]time.Duration
	fail     map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeAuditor) Run(ctx context.Context, req types.CandidateRequest) types.AuditOutcome {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(f.delays[req.Name]):
	case <-ctx.Done():
		return types.FailedOutcome(req, 1, "audit abandoned: "+ctx.Err().Error())
	}
	if f.fail[req.Name] {
		return types.FailedOutcome(req, 1, "llm provider error (invalid_request)")
	}
	return types.CompletedOutcome(req, &types.CandidateReport{
		CandidateName:       req.Name,
		RelevanceScore:      6,
		KeyFindings:         []string{req.Name + " finding"},
		ResumeDiscrepancies: []string{},
		Summary:             "Audited " + req.Name,
	}, 1)
}

func roster(names ...string) []types.CandidateRequest {
	reqs := make([]types.CandidateRequest, 0, len(names))
	for _, n := range names {
		reqs = append(reqs, types.CandidateRequest{Name: n, TargetRole: "Engineer"})
	}
	return reqs
}

func TestRunner_PreservesInputOrder(t *testing.T) {
	auditor := &fakeAuditor{delays: map[string]time.Duration{
		"A": 60 * time.Millisecond,
		"B": 30 * time.Millisecond,
		"C": 1 * time.Millisecond,
	}}

	var mu sync.Mutex
	var completionOrder []string
	runner := NewRunner(auditor)
	runner.OnProgress = func(e ProgressEvent) {
		if e.Kind == EventCompleted {
			mu.Lock()
			completionOrder = append(completionOrder, e.Name)
			mu.Unlock()
		}
	}

	outcomes := runner.Run(context.Background(), roster("A", "B", "C"))

	require.Len(t, outcomes, 3)
	for i, name := range []string{"A", "B", "C"} {
		assert.Equal(t, name, outcomes[i].CandidateName())
		assert.Equal(t, i, outcomes[i].Index)
		assert.True(t, outcomes[i].Completed())
	}
	// Completion order depends on the scheduler; only the result slice is ordered.
	assert.ElementsMatch(t, []string{"A", "B", "C"}, completionOrder)
}

func TestRunner_IsolatesFailures(t *testing.T) {
	auditor := &fakeAuditor{
		delays: map[string]time.Duration{"A": 5 * time.Millisecond, "B": time.Millisecond, "C": 5 * time.Millisecond},
		fail:   map[string]bool{"B": true},
	}

	outcomes := NewRunner(auditor).Run(context.Background(), roster("A", "B", "C"))

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Completed())
	assert.False(t, outcomes[1].Completed())
	assert.Equal(t, types.FailureSummary, outcomes[1].Summary())
	assert.Equal(t, 0, outcomes[1].RelevanceScore())
	assert.True(t, outcomes[2].Completed())
}

func TestRunner_MaxConcurrency(t *testing.T) {
	delays := map[string]time.Duration{}
	names := []string{"a", "b", "c", "d", "e", "f"}
	for _, n := range names {
		delays[n] = 15 * time.Millisecond
	}
	auditor := &fakeAuditor{delays: delays}
	runner := NewRunner(auditor)
	runner.MaxConcurrency = 2

	outcomes := runner.Run(context.Background(), roster(names...))

	assert.Len(t, outcomes, len(names))
	assert.LessOrEqual(t, auditor.peak.Load(), int32(2))
}

func TestRunner_DeadlineRecordsFailures(t *testing.T) {
	auditor := &fakeAuditor{delays: map[string]time.Duration{
		"fast": time.Millisecond,
		"slow": time.Hour,
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcomes := NewRunner(auditor).Run(ctx, roster("fast", "slow"))

	assert.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Completed())
	assert.False(t, outcomes[1].Completed())
	assert.Equal(t, 1, outcomes[1].Index)
}

func TestRunner_Progress(t *testing.T) {
	auditor := &fakeAuditor{}
	var events []ProgressEvent
	runner := NewRunner(auditor)
	runner.OnProgress = func(e ProgressEvent) { events = append(events, e) }

	runner.Run(context.Background(), roster("A", "B"))

	require.Len(t, events, 4)
	last := events[len(events)-1]
	assert.Equal(t, EventCompleted, last.Kind)
	assert.Equal(t, 2, last.Completed)
	assert.Equal(t, 2, last.Total)
}

func TestRunner_Empty(t *testing.T) {
	assert.Empty(t, NewRunner(&fakeAuditor{}).Run(context.Background(), nil))
}

func TestLoadRoster(t *testing.T) {
	input := "\ufeffName, Role ,Resume_Path\n" +
		"Ada Lovelace,Staff Engineer,ada.pdf\n" +
		"\n" +
		"Grace Hopper,Compiler Lead\n" +
		",Engineer,\n"

	reqs, err := LoadRoster(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, types.CandidateRequest{Name: "Ada Lovelace", TargetRole: "Staff Engineer", ResumePath: "ada.pdf"}, reqs[0])
	assert.Equal(t, types.CandidateRequest{Name: "Grace Hopper", TargetRole: "Compiler Lead"}, reqs[1])
	// Invalid rows are kept so the job can record them as failures.
	assert.Equal(t, "", reqs[2].Name)
}

func TestLoadRoster_Errors(t *testing.T) {
	_, err := LoadRoster(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyRoster)

	_, err = LoadRoster(strings.NewReader("name,role\n"))
	assert.ErrorIs(t, err, ErrEmptyRoster)

	_, err = LoadRoster(strings.NewReader("name,title\nAda,Engineer\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role")
}

func TestLoadRosterFile_ResolvesRelativeResumes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,role,document\nAda,Engineer,cv/ada.pdf\nGrace,Lead,/abs/grace.pdf\nAlan,Analyst,\n"), 0o600))

	reqs, err := LoadRosterFile(path)
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, filepath.Join(dir, "cv", "ada.pdf"), reqs[0].ResumePath)
	assert.Equal(t, "/abs/grace.pdf", reqs[1].ResumePath)
	assert.Equal(t, "", reqs[2].ResumePath)

	_, err = LoadRosterFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func sampleOutcomes() []types.AuditOutcome {
	ok := types.CompletedOutcome(types.CandidateRequest{Name: "Ada", TargetRole: "Engineer"}, &types.CandidateReport{
		CandidateName:       "Ada",
		RelevanceScore:      9,
		KeyFindings:         []string{"Wrote notes", "Worked with Babbage"},
		ResumeDiscrepancies: []string{"Start date differs"},
		Summary:             "Strong, verified.",
	}, 1)
	failed := types.FailedOutcome(types.CandidateRequest{Name: "Grace", TargetRole: "Lead"}, 3, "retries exhausted")
	failed.Index = 1
	return []types.AuditOutcome{ok, failed}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleOutcomes()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"Ada", "Engineer", "completed", "9", "Wrote notes; Worked with Babbage", "Start date differs", "Strong, verified."}, rows[1])
	assert.Equal(t, []string{"Grace", "Lead", "failed", "0", "", "", types.FailureSummary}, rows[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleOutcomes()))

	var records []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, 9, records[0].RelevanceScore)
	assert.Equal(t, []string{}, records[1].KeyFindings)
	assert.Equal(t, "retries exhausted", records[1].Reason)
	assert.Contains(t, buf.String(), `"key_findings": []`)
}

func TestWriteOutcomes_ByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.json", "out.docx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteOutcomes(path, sampleOutcomes()), name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	err := WriteOutcomes(filepath.Join(dir, "out.xlsx"), sampleOutcomes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
