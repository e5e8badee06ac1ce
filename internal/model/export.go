package model

import "time"

// ResultsExport is the top-level JSON structure written by the export command.
type ResultsExport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Run         RunInfo        `json:"run"`
	Exams       []ExamRecord   `json:"exams"`
	Results     []ResultRecord `json:"results"`
}

// RunInfo describes the configuration the journal was written with.
type RunInfo struct {
	Provider  string    `json:"llm_provider"`
	Model     string    `json:"llm_model"`
	Lang      string    `json:"lang"`
	StartedAt time.Time `json:"started_at"`
}

// ExamRecord is one issued exam as recorded in the journal.
type ExamRecord struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Theme        string    `json:"theme"`
	NumQuestions int       `json:"num_questions"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ResultRecord is one graded result as recorded in the journal.
type ResultRecord struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Result
}
