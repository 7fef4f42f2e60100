package ingestion

// Response DTOs
type IngestResponse struct {
	OK      bool `json:"ok"`
	Written int  `json:"written"`
	Skipped int  `json:"skipped"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
