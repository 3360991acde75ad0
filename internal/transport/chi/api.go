package chi

// ErrorCode is a machine-readable error category.
type ErrorCode string

// Error codes returned by the facade.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeQuerySyntax      ErrorCode = "query_syntax"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeConfiguration    ErrorCode = "configuration_error"
	ErrorCodeEmbedding        ErrorCode = "embedding_error"
	ErrorCodeUpstream         ErrorCode = "upstream_error"
	ErrorCodeInternal         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// BookHit is one book search result.
type BookHit struct {
	Score     *float64 `json:"score,omitempty"`
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Author    string   `json:"author"`
	PageCount int      `json:"pageCount"`
	Genres    string   `json:"genres"`
}

// BookSearchResponse lists book hits in service order.
type BookSearchResponse struct {
	Items []BookHit `json:"items"`
	Total int       `json:"total"`
}

// JobHit is one job search result. Scores are mode-specific.
type JobHit struct {
	Score       *float64 `json:"score,omitempty"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Salary      float64  `json:"salary"`
	Description string   `json:"description"`
}

// JobSearchResponse lists job hits in service order.
type JobSearchResponse struct {
	Mode  string   `json:"mode"`
	Items []JobHit `json:"items"`
	Total int      `json:"total"`
}

// RetrieveRequest asks the car knowledge agent a question.
type RetrieveRequest struct {
	Question string `json:"question"`
}

// RetrieveReference is a cited car.
type RetrieveReference struct {
	RefID         string   `json:"refId"`
	DocKey        string   `json:"docKey,omitempty"`
	Model         string   `json:"model,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	RerankerScore *float64 `json:"rerankerScore,omitempty"`
}

// RetrieveActivity is one step of the agent plan.
type RetrieveActivity struct {
	Type         string `json:"type"`
	Query        string `json:"query,omitempty"`
	Count        int    `json:"count,omitempty"`
	InputTokens  int    `json:"inputTokens,omitempty"`
	OutputTokens int    `json:"outputTokens,omitempty"`
}

// RetrieveResponse is the agent answer with citations substituted.
type RetrieveResponse struct {
	Answer     string              `json:"answer"`
	References []RetrieveReference `json:"references"`
	Activity   []RetrieveActivity  `json:"activity"`
}
