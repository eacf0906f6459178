package model

import "encoding/json"

// Embedding model selectors. Each maps to one dedicated vector column on the
// postings table.
const (
	EmbeddingModelLocal  = "jhgan"  // local Korean encoder, 768 dimensions
	EmbeddingModelOpenAI = "openai" // text-embedding-3-small, 1536 dimensions
)

// ChatRequest is the inbound payload for one conversation turn. The caller
// supplies the condition accumulated over prior turns (or nothing on the
// first turn); there is no server-side session state.
type ChatRequest struct {
	UserID              string          `json:"userid"`
	Text                string          `json:"text" binding:"required"`
	Condition           json.RawMessage `json:"condition"`
	Search              bool            `json:"search"`
	EmbeddingModel      string          `json:"embeddingModel"`
	SimilarityThreshold float64         `json:"similarityThreshold"`
}

// ChatState is the per-turn working memory threaded through the graph nodes.
// It is constructed fresh per request, mutated in place by the node that
// handles the turn, and discarded once the response is written.
type ChatState struct {
	UserID              string
	Text                string
	Condition           Condition
	Search              bool
	EmbeddingModel      string
	SimilarityThreshold float64
	JobRelated          *bool
	Result              []JobResult
	Reply               string
}

// ChatResult is the terminal output of a turn, identical in shape for every
// path through the graph.
type ChatResult struct {
	JobRelated *bool       `json:"job_related"`
	Condition  Condition   `json:"condition"`
	Result     []JobResult `json:"result"`
	Reply      string      `json:"reply"`
}

// ChatResult snapshots the state into the response payload.
func (s *ChatState) ChatResult() ChatResult {
	result := s.Result
	if result == nil {
		result = []JobResult{}
	}
	return ChatResult{
		JobRelated: s.JobRelated,
		Condition:  s.Condition,
		Result:     result,
		Reply:      s.Reply,
	}
}
