package worker

// FetchResultPayload is published to fetch.result after a successful fetch.
type FetchResultPayload struct {
	TaskID        string `json:"task_id"`
	URL           string `json:"url"`
	HTTPStatus    int    `json:"http_status"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NormalizeTaskPayload is published to normalize.task, referencing the raw
// content by URL.
type NormalizeTaskPayload struct {
	TaskID        string `json:"task_id"`
	URL           string `json:"url"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// RecordEmbedPayload is published to record.embed for each upserted record.
type RecordEmbedPayload struct {
	RecordID      string `json:"record_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
