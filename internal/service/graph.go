package service

import (
	"context"
	"fmt"
	"log"

	"gigchat/internal/model"
)

// Reply strings for every terminal path.
const (
	replyNotJobRelated    = "죄송합니다. 알바/일자리 검색과 관련된 질문만 주시면 감사하겠습니다."
	replyConditionUpdated = "일자리 조건을 추가 또는 업데이트했습니다."
	replyNoResults        = "조건에 맞는 일자리를 찾지 못했습니다. 조건을 완화해보시겠어요?"
	replySearchError      = "일자리 검색 중 오류가 발생했습니다."
	replyNoRequirements   = "추가 조건(requirements)이 없어 하이브리드 검색을 수행할 수 없습니다."
	replyEmbeddingError   = "벡터 임베딩 생성 중 오류가 발생했습니다."
	replyHybridError      = "하이브리드 검색 중 오류가 발생했습니다."
)

// JobSearcher is the store contract the search nodes depend on.
type JobSearcher interface {
	SearchActive(ctx context.Context, cond model.Condition) ([]model.JobResult, error)
	HybridSearchActive(ctx context.Context, cond model.Condition, embedding []float32, column string, threshold float64) ([]model.JobResult, error)
}

// TimeValidator checks the start/end pairing invariant before a search runs.
type TimeValidator func(model.Condition) (bool, string)

// node enumerates the states of the dialogue graph.
type node int

const (
	nodeCheckSearch node = iota
	nodeClassifyInput
	nodeDecideSearchType
	nodeSQLSearch
	nodeHybridSearch
	nodeEnd
)

// nextFromCheckSearch routes the entry node: search turns go to search-type
// decision, everything else to classification.
func nextFromCheckSearch(s *model.ChatState) node {
	if s.Search {
		return nodeDecideSearchType
	}
	return nodeClassifyInput
}

// nextFromDecideSearchType routes a search turn: free-text requirements mean
// hybrid vector search, otherwise plain relational search.
func nextFromDecideSearchType(s *model.ChatState) node {
	if s.Condition.HasRequirements() {
		return nodeHybridSearch
	}
	return nodeSQLSearch
}

// searchProvider pairs an embedding provider with its stored vector column.
type searchProvider struct {
	embedder Embedder
	column   string
}

// ChatGraph is the dialogue state machine: an acyclic directed graph with a
// single entry node and terminal classification/search nodes, executed over
// a per-request ChatState. It holds no per-request state itself and is safe
// for concurrent use.
type ChatGraph struct {
	classifier       *Classifier
	jobs             JobSearcher
	providers        map[string]searchProvider
	categories       []string
	validateTimes    TimeValidator
	defaultModel     string
	defaultThreshold float64
}

// NewChatGraph assembles the graph. providers maps an embedding-model
// selector to its provider; categories is the closed category list offered
// to the classifier.
func NewChatGraph(
	classifier *Classifier,
	jobs JobSearcher,
	validateTimes TimeValidator,
	categories []string,
	defaultModel string,
	defaultThreshold float64,
) *ChatGraph {
	return &ChatGraph{
		classifier:       classifier,
		jobs:             jobs,
		providers:        make(map[string]searchProvider),
		categories:       categories,
		validateTimes:    validateTimes,
		defaultModel:     defaultModel,
		defaultThreshold: defaultThreshold,
	}
}

// RegisterProvider binds an embedding-model selector to a provider and its
// vector column.
func (g *ChatGraph) RegisterProvider(name string, embedder Embedder, column string) {
	g.providers[name] = searchProvider{embedder: embedder, column: column}
}

// Run executes one turn. Every path terminates; no node ever returns an
// error — failures are folded into the state's result and reply.
func (g *ChatGraph) Run(ctx context.Context, state *model.ChatState) {
	current := nodeCheckSearch
	for current != nodeEnd {
		switch current {
		case nodeCheckSearch:
			current = nextFromCheckSearch(state)
		case nodeDecideSearchType:
			current = nextFromDecideSearchType(state)
		case nodeClassifyInput:
			g.runClassifyInput(ctx, state)
			current = nodeEnd
		case nodeSQLSearch:
			g.runSQLSearch(ctx, state)
			current = nodeEnd
		case nodeHybridSearch:
			g.runHybridSearch(ctx, state)
			current = nodeEnd
		default:
			current = nodeEnd
		}
	}
}

// runClassifyInput classifies the utterance and, when job-related, merges
// the extracted condition into the accumulated one. No search runs on this
// path.
func (g *ChatGraph) runClassifyInput(ctx context.Context, state *model.ChatState) {
	jobRelated, extracted := g.classifier.Classify(ctx, state.Text, state.Condition, g.categories)
	state.JobRelated = &jobRelated

	if !jobRelated {
		state.Reply = replyNotJobRelated
		log.Printf("[classify_input] not job-related")
		return
	}

	state.Condition = model.Merge(state.Condition, model.Normalize(extracted))
	state.Reply = replyConditionUpdated
	log.Printf("[classify_input] job-related, condition merged")
}

// runSQLSearch executes the relational-only search path.
func (g *ChatGraph) runSQLSearch(ctx context.Context, state *model.ChatState) {
	log.Printf("[sql_search] start")

	if ok, msg := g.validateTimes(state.Condition); !ok {
		log.Printf("[sql_search] %s", msg)
		state.Result = []model.JobResult{}
		state.Reply = msg
		return
	}

	results, err := g.jobs.SearchActive(ctx, state.Condition)
	if err != nil {
		log.Printf("[sql_search] query failed: %v", err)
		state.Result = []model.JobResult{}
		state.Reply = replySearchError
		return
	}

	log.Printf("[sql_search] done, %d results", len(results))
	state.Result = results
	state.Reply = searchReply(len(results), "조건에 맞는 일자리 %d개를 찾았습니다.")
}

// runHybridSearch executes the relational+vector search path.
func (g *ChatGraph) runHybridSearch(ctx context.Context, state *model.ChatState) {
	log.Printf("[hybrid_search] start")

	// Hybrid search is meaningless without requirements text; never fall
	// through to relational search silently.
	if !state.Condition.HasRequirements() {
		log.Printf("[hybrid_search] no requirements in condition")
		state.Result = []model.JobResult{}
		state.Reply = replyNoRequirements
		return
	}

	if ok, msg := g.validateTimes(state.Condition); !ok {
		log.Printf("[hybrid_search] %s", msg)
		state.Result = []model.JobResult{}
		state.Reply = msg
		return
	}

	modelName := state.EmbeddingModel
	if modelName == "" {
		modelName = g.defaultModel
	}
	threshold := state.SimilarityThreshold
	if threshold <= 0 {
		threshold = g.defaultThreshold
	}

	provider, ok := g.providers[modelName]
	if !ok {
		log.Printf("[hybrid_search] unsupported embedding model: %s", modelName)
		state.Result = []model.JobResult{}
		state.Reply = replyEmbeddingError
		return
	}

	log.Printf("[hybrid_search] model=%s threshold=%.2f", modelName, threshold)

	embedding, err := provider.embedder.Embed(ctx, *state.Condition.Requirements)
	if err != nil || len(embedding) == 0 {
		if err == nil {
			err = fmt.Errorf("provider returned an empty vector")
		}
		log.Printf("[hybrid_search] embedding failed: %v", err)
		state.Result = []model.JobResult{}
		state.Reply = replyEmbeddingError
		return
	}

	results, err := g.jobs.HybridSearchActive(ctx, state.Condition, embedding, provider.column, threshold)
	if err != nil {
		log.Printf("[hybrid_search] query failed: %v", err)
		state.Result = []model.JobResult{}
		state.Reply = replyHybridError
		return
	}

	log.Printf("[hybrid_search] done, %d results", len(results))
	state.Result = results
	state.Reply = searchReply(len(results), "하이브리드 검색 결과: %d개의 일자리를 찾았습니다.")
}

func searchReply(count int, foundFormat string) string {
	if count > 0 {
		return fmt.Sprintf(foundFormat, count)
	}
	return replyNoResults
}
