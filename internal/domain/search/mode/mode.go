package mode

// Mode is the query strategy.
type Mode string

// Query mode constants.
const (
	// Keyword is full-text search, optionally filtered and ordered.
	Keyword Mode = "keyword"
	Vector  Mode = "vector"
	// Hybrid runs keyword and vector retrieval in one remote call.
	Hybrid Mode = "hybrid"
	// Agentic delegates retrieval and answer synthesis to a knowledge agent.
	Agentic Mode = "agentic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Vector || m == Hybrid || m == Agentic
}

// UsesVector reports whether the mode needs a query embedding.
func (m Mode) UsesVector() bool { return m == Vector || m == Hybrid }

// UsesText reports whether the mode sends raw query text.
func (m Mode) UsesText() bool { return m == Keyword || m == Hybrid }

// Syntax is the keyword query parser mode.
type Syntax string

// Query syntax constants.
const (
	Simple Syntax = "simple"
	Full   Syntax = "full"
)

// IsValid checks if the syntax is supported.
func (s Syntax) IsValid() bool { return s == Simple || s == Full }
