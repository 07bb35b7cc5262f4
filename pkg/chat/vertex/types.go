package vertex

import "fmt"

const (
	defaultLocation        = "us-central1"
	defaultBaseURLFormat   = "https://%s-aiplatform.googleapis.com"
	predictPathFormat      = "/v1/projects/%s/locations/%s/publishers/google/models/%s:predict"
	defaultMaxOutputTokens = 1024
	defaultHTTPTimeout     = 60 // seconds
	userAgent              = "pilot/vertex"
)

// PredictRequest is the payload for the Vertex AI chat predict endpoint.
type PredictRequest struct {
	Instances  []ChatInstance   `json:"instances"`
	Parameters GenerationParams `json:"parameters"`
}

// ChatInstance carries the system context and the linear message history.
type ChatInstance struct {
	Context  string        `json:"context,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

// ChatMessage is a single turn in the Vertex request shape. Author is "user"
// or "bot"; there is no tool role.
type ChatMessage struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// GenerationParams tunes the model output.
type GenerationParams struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
}

// PredictResponse captures the subset of the prediction schema we consume.
type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Prediction wraps the candidate replies for one instance.
type Prediction struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated reply.
type Candidate struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// ErrorResponse models the Google API error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody drills into the API error object.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// APIError surfaces endpoint failures with HTTP metadata.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e APIError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("vertex API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vertex API error (%d, %s): %s", e.StatusCode, e.Status, e.Message)
}
