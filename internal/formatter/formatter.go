// package formatter renders plans and run outcomes to CSV, JSON, and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/plan"
	"github.com/desertthunder/drivemig/internal/shared"
	"github.com/desertthunder/drivemig/internal/tasks"
)

// PlanToCSV converts a plan to CSV with columns: SourceID, Name, Kind, Action, Depth, TargetID, Reason
func PlanToCSV(p *plan.Plan) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"SourceID", "Name", "Kind", "Action", "Depth", "TargetID", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, task := range p.Tasks {
		record := []string{
			task.SourceID,
			task.Name,
			string(task.Kind),
			string(task.Action),
			strconv.Itoa(task.Depth),
			task.TargetID,
			task.Reason,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// OutcomesToCSV converts apply outcomes to CSV with columns: SourceID, Name, Kind, Action, Status, TargetID, Attempts, Error
func OutcomesToCSV(outcomes []tasks.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"SourceID", "Name", "Kind", "Action", "Status", "TargetID", "Attempts", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, out := range outcomes {
		errText := ""
		if out.Err != nil {
			errText = out.Err.Error()
		}
		record := []string{
			out.SourceID,
			out.Name,
			string(out.Kind),
			string(out.Action),
			string(out.Status),
			out.TargetID,
			strconv.Itoa(out.Attempts),
			errText,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// runSummary is the JSON shape of a run report.
type runSummary struct {
	RunID         string    `json:"run_id"`
	SourceAccount string    `json:"source_account"`
	TargetAccount string    `json:"target_account"`
	Status        string    `json:"status"`
	TasksTotal    int       `json:"tasks_total"`
	TasksDone     int       `json:"tasks_done"`
	TasksFailed   int       `json:"tasks_failed"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// RunToJSON generates an indented JSON representation of a run record
func RunToJSON(run *models.Run) ([]byte, error) {
	return shared.MarshalJSON(runSummary{
		RunID:         run.RunID,
		SourceAccount: run.SourceAccount,
		TargetAccount: run.TargetAccount,
		Status:        string(run.Status),
		TasksTotal:    run.TasksTotal,
		TasksDone:     run.TasksDone,
		TasksFailed:   run.TasksFailed,
		ErrorMessage:  run.ErrorMessage,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
	}, true)
}

// PlanToMarkdown converts a plan to a Markdown summary with per-action counts
// and a task table
func PlanToMarkdown(p *plan.Plan) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Migration plan\n\n")
	buf.WriteString(fmt.Sprintf("**Tasks**: %d\n\n", len(p.Tasks)))

	buf.WriteString("| Action | Count |\n|---|---|\n")
	for _, action := range []models.Action{
		models.ActionCopy, models.ActionRelink, models.ActionSkip,
		models.ActionReview, models.ActionDelete,
	} {
		if count := p.Counts[action]; count > 0 {
			buf.WriteString(fmt.Sprintf("| %s | %d |\n", action, count))
		}
	}

	buf.WriteString("\n## Tasks\n\n")
	buf.WriteString("| Source | Name | Kind | Action | Reason |\n|---|---|---|---|---|\n")
	for _, task := range p.Tasks {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			task.SourceID, task.Name, task.Kind, task.Action, task.Reason))
	}

	return buf.Bytes()
}

// ReportResult contains the paths of files created by WriteRunReport
type ReportResult struct {
	OutcomesFile string
	SummaryFile  string
}

// WriteRunReport writes an outcome CSV and a run summary JSON next to each
// other under the given base path, {base}_outcomes.csv and {base}_run.json.
func WriteRunReport(result *tasks.ApplyResult, basePath string) (*ReportResult, error) {
	if basePath == "" {
		basePath = result.Run.RunID
	}

	csvData, err := OutcomesToCSV(result.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	outcomesFile := basePath + "_outcomes.csv"
	if err := os.WriteFile(outcomesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write outcomes file: %w", err)
	}

	summaryJSON, err := RunToJSON(result.Run)
	if err != nil {
		return nil, fmt.Errorf("failed to generate run summary: %w", err)
	}

	summaryFile := basePath + "_run.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &ReportResult{OutcomesFile: outcomesFile, SummaryFile: summaryFile}, nil
}

// WritePlanReport writes a plan CSV to the given path, defaulting to plan.csv.
func WritePlanReport(p *plan.Plan, path string) (string, error) {
	if path == "" {
		path = "plan.csv"
	}

	csvData, err := PlanToCSV(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write plan file: %w", err)
	}

	return path, nil
}
