package result

// Export is the top-level JSON structure for quiz result export.
type Export struct {
	ExamID        string    `json:"exam_id"`
	Subject       string    `json:"subject"`
	Date          string    `json:"date"`
	OracleVariant string    `json:"oracle_variant,omitempty"`
	NumSessions   int       `json:"num_sessions"`
	Results       []Summary `json:"results"`
}
