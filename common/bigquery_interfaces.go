package common

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/bigquery"
)

// Define abstract interfaces for BigQuery

type BigQueryClient interface {
	Query(q string) BigQueryQueryHandle
}

type BigQueryQueryHandle interface {
	Run(ctx context.Context) (j BigQueryJobHandle, err error)
	SetParameters(p []bigquery.QueryParameter)
}

type BigQueryJobHandle interface {
	Wait(ctx context.Context) (BigQueryJobStatusHandle, error)
}

type BigQueryJobStatusHandle interface {
	Err() error
}

// RunQuery runs a parameterized statement and waits for the job to finish.
func RunQuery(ctx context.Context, client BigQueryClient, query string, params []bigquery.QueryParameter) error {
	q := client.Query(query)
	q.SetParameters(params)

	job, err := q.Run(ctx)
	if err != nil {
		log.Printf("Failed to Run query: %v", err)
		return fmt.Errorf("Run: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		log.Printf("Job failed: %v", err)
		return fmt.Errorf("Wait: %w", err)
	}
	if err := status.Err(); err != nil {
		log.Printf("Job status error: %v", err)
		return fmt.Errorf("job status: %w", err)
	}

	return nil
}

type RealBigQueryClient struct {
	Client *bigquery.Client
}

type RealBigQueryQueryHandle struct {
	query *bigquery.Query
}

type RealBigQueryJobHandle struct {
	job *bigquery.Job
}

type RealBigQueryJobStatusHandle struct {
	status *bigquery.JobStatus
}

func (r *RealBigQueryClient) Query(q string) BigQueryQueryHandle {
	return &RealBigQueryQueryHandle{query: r.Client.Query(q)}
}

func (r *RealBigQueryQueryHandle) Run(ctx context.Context) (BigQueryJobHandle, error) {
	job, err := r.query.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &RealBigQueryJobHandle{job}, nil
}

func (r *RealBigQueryQueryHandle) SetParameters(p []bigquery.QueryParameter) {
	r.query.Parameters = p
}

func (s *RealBigQueryJobHandle) Wait(ctx context.Context) (BigQueryJobStatusHandle, error) {
	status, err := s.job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return &RealBigQueryJobStatusHandle{status}, nil
}

func (s *RealBigQueryJobStatusHandle) Err() error {
	return s.status.Err()
}
