package results

// Record is one computed metric for one evaluation job.
type Record struct {
	JobID     string  `json:"job_id"`
	Metric    string  `json:"metric"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ScoredAt  int64   `json:"scored_at"`
}

// JobEntry groups the records of a single job for archival.
type JobEntry struct {
	JobID   string
	Records []Record
}
