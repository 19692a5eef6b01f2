package qualtrics

// Export job status values reported by the platform. The API documents
// "failed"; older datacenters have been observed reporting "error" for the
// same condition, so both are treated as terminal failures.
const (
	StatusInProgress = "inProgress"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
	StatusError      = "error"
)

// ExportRequest describes the export job to create
type ExportRequest struct {
	Format    string `json:"format"`
	Compress  bool   `json:"compress"`
	UseLabels bool   `json:"useLabels"`
}

// Progress is the observed state of an export job at one poll
type Progress struct {
	PercentComplete float64
	Status          string
	FileID          string
}

// Terminal reports whether the job has reached a final status
func (p Progress) Terminal() bool {
	return p.Complete() || p.Failed()
}

// Complete reports whether the job finished successfully
func (p Progress) Complete() bool {
	return p.Status == StatusComplete
}

// Failed reports whether the platform gave up on the job
func (p Progress) Failed() bool {
	return p.Status == StatusFailed || p.Status == StatusError
}

// API v3 wraps every payload in a result/meta envelope.

type apiMeta struct {
	HTTPStatus string        `json:"httpStatus"`
	RequestID  string        `json:"requestId"`
	Error      *apiMetaError `json:"error,omitempty"`
}

type apiMetaError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

type startExportResponse struct {
	Result struct {
		ProgressID      string  `json:"progressId"`
		PercentComplete float64 `json:"percentComplete"`
		Status          string  `json:"status"`
	} `json:"result"`
	Meta apiMeta `json:"meta"`
}

type exportProgressResponse struct {
	Result struct {
		PercentComplete float64 `json:"percentComplete"`
		Status          string  `json:"status"`
		FileID          string  `json:"fileId,omitempty"`
	} `json:"result"`
	Meta apiMeta `json:"meta"`
}
