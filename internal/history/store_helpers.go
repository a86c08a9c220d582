package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id         string
		source     sql.NullString
		title      sql.NullString
		provider   sql.NullString
		model      sql.NullString
		pipeline   sql.NullString
		status     string
		sections   int
		errMessage sql.NullString
		resultJSON sql.NullString
		inputTok   int
		outputTok  int
		cost       float64
		apiCalls   int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&id, &source, &title, &provider, &model, &pipeline, &status, &sections,
		&errMessage, &resultJSON, &inputTok, &outputTok, &cost, &apiCalls,
		&createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:         id,
		Source:     source.String,
		Title:      title.String,
		Provider:   provider.String,
		Model:      model.String,
		Pipeline:   pipeline.String,
		Status:     Status(status),
		Sections:   sections,
		Error:      errMessage.String,
		ResultJSON: resultJSON.String,
		Usage: Usage{
			InputTokens:   inputTok,
			OutputTokens:  outputTok,
			EstimatedCost: cost,
			APICalls:      apiCalls,
		},
	}
	var err error
	if job.CreatedAt, err = parseTime(createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = parseTime(updatedRaw); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return job, nil
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
