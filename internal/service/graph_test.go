package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/model"
	"gigchat/internal/repository"
)

type stubChatModel struct {
	reply string
	err   error
}

func (s *stubChatModel) Chat(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

type fakeSearcher struct {
	results []model.JobResult
	err     error

	searchCond  *model.Condition
	hybridCond  *model.Condition
	gotVector   []float32
	gotColumn   string
	gotThresh   float64
	hybridCalls int
}

func (f *fakeSearcher) SearchActive(ctx context.Context, cond model.Condition) ([]model.JobResult, error) {
	f.searchCond = &cond
	return f.results, f.err
}

func (f *fakeSearcher) HybridSearchActive(ctx context.Context, cond model.Condition, embedding []float32, column string, threshold float64) ([]model.JobResult, error) {
	f.hybridCalls++
	f.hybridCond = &cond
	f.gotVector = embedding
	f.gotColumn = column
	f.gotThresh = threshold
	return f.results, f.err
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

func newTestGraph(llm ChatModel, jobs JobSearcher) *ChatGraph {
	g := NewChatGraph(
		NewClassifier(llm),
		jobs,
		repository.ValidateTimeConditions,
		[]string{"외식/음료", "IT/인터넷"},
		model.EmbeddingModelLocal,
		0.4,
	)
	g.RegisterProvider(model.EmbeddingModelLocal, &fakeEmbedder{vector: []float32{0.1, 0.2}}, repository.EmbeddingColumn768)
	return g
}

func strPtr(s string) *string { return &s }

func TestNextFromCheckSearch(t *testing.T) {
	if got := nextFromCheckSearch(&model.ChatState{Search: true}); got != nodeDecideSearchType {
		t.Errorf("search turn routed to %v", got)
	}
	if got := nextFromCheckSearch(&model.ChatState{Search: false}); got != nodeClassifyInput {
		t.Errorf("conversation turn routed to %v", got)
	}
}

func TestNextFromDecideSearchType(t *testing.T) {
	withReq := model.ChatState{Condition: model.Condition{Requirements: strPtr("운전 면허증")}}
	if got := nextFromDecideSearchType(&withReq); got != nodeHybridSearch {
		t.Errorf("requirements routed to %v", got)
	}

	blankReq := model.ChatState{Condition: model.Condition{Requirements: strPtr("   ")}}
	if got := nextFromDecideSearchType(&blankReq); got != nodeSQLSearch {
		t.Errorf("whitespace requirements routed to %v", got)
	}

	if got := nextFromDecideSearchType(&model.ChatState{}); got != nodeSQLSearch {
		t.Errorf("no requirements routed to %v", got)
	}
}

func TestClassifyTurnMergesCondition(t *testing.T) {
	llm := &stubChatModel{reply: `{
		"job_related": true,
		"condition": {
			"place": "서울특별시 강남구",
			"age": "30대",
			"gender": "남성"
		}
	}`}
	jobs := &fakeSearcher{}
	g := newTestGraph(llm, jobs)

	state := &model.ChatState{
		Text:      "강남에 거주하는 35세 남자입니다.",
		Condition: model.Condition{HourlyWage: &model.Scalar{Num: 12000, IsNumber: true}},
	}
	g.Run(context.Background(), state)

	require.NotNil(t, state.JobRelated)
	assert.True(t, *state.JobRelated)
	assert.Equal(t, replyConditionUpdated, state.Reply)

	require.NotNil(t, state.Condition.Place)
	assert.Equal(t, "서울특별시 강남구", *state.Condition.Place)
	require.NotNil(t, state.Condition.Age)
	assert.Equal(t, "30대", state.Condition.Age.Str)
	require.NotNil(t, state.Condition.Gender)
	assert.Equal(t, "남성", *state.Condition.Gender)

	// Earlier turns survive the merge.
	require.NotNil(t, state.Condition.HourlyWage)
	assert.Equal(t, float64(12000), state.Condition.HourlyWage.Num)

	// Classification never runs a search.
	assert.Nil(t, jobs.searchCond)
	assert.Zero(t, jobs.hybridCalls)
}

func TestClassifyTurnNotJobRelated(t *testing.T) {
	llm := &stubChatModel{reply: `{"job_related": false, "condition": {}}`}
	g := newTestGraph(llm, &fakeSearcher{})

	place := strPtr("서울시 강남구")
	state := &model.ChatState{
		Text:      "오늘 날씨 어때?",
		Condition: model.Condition{Place: place},
	}
	g.Run(context.Background(), state)

	require.NotNil(t, state.JobRelated)
	assert.False(t, *state.JobRelated)
	assert.Equal(t, replyNotJobRelated, state.Reply)
	// Off-topic turns leave the accumulated condition untouched.
	assert.Equal(t, place, state.Condition.Place)
}

func TestClassifyTurnDegradesOnModelFailure(t *testing.T) {
	tests := []struct {
		name string
		llm  *stubChatModel
	}{
		{"transport error", &stubChatModel{err: errors.New("connection refused")}},
		{"prose output", &stubChatModel{reply: "죄송하지만 JSON으로 답변드릴 수 없습니다."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(tt.llm, &fakeSearcher{})
			state := &model.ChatState{Text: "알바 찾아줘"}
			g.Run(context.Background(), state)

			require.NotNil(t, state.JobRelated)
			assert.False(t, *state.JobRelated)
			assert.Equal(t, replyNotJobRelated, state.Reply)
		})
	}
}

func TestSQLSearchTurn(t *testing.T) {
	jobs := &fakeSearcher{results: []model.JobResult{{ID: 1}, {ID: 2}}}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{
		Search:    true,
		Condition: model.Condition{Place: strPtr("서울시 강남구")},
	}
	g.Run(context.Background(), state)

	require.NotNil(t, jobs.searchCond)
	assert.Len(t, state.Result, 2)
	assert.Equal(t, "조건에 맞는 일자리 2개를 찾았습니다.", state.Reply)
	assert.Zero(t, jobs.hybridCalls)
}

func TestSQLSearchTurnNoResults(t *testing.T) {
	jobs := &fakeSearcher{results: []model.JobResult{}}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{Search: true}
	g.Run(context.Background(), state)

	assert.Equal(t, replyNoResults, state.Reply)
	assert.NotNil(t, state.Result)
	assert.Empty(t, state.Result)
}

func TestSQLSearchTurnRejectsAsymmetricTimes(t *testing.T) {
	jobs := &fakeSearcher{}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{
		Search:    true,
		Condition: model.Condition{StartTime: strPtr("09:00")},
	}
	g.Run(context.Background(), state)

	assert.Equal(t, "근무 시작시각과 종료시각은 둘 다 입력하거나 둘 다 비워야 합니다.", state.Reply)
	assert.Empty(t, state.Result)
	// The search never reaches the store.
	assert.Nil(t, jobs.searchCond)
}

func TestSQLSearchTurnStoreError(t *testing.T) {
	jobs := &fakeSearcher{err: errors.New("connection reset")}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{Search: true}
	g.Run(context.Background(), state)

	assert.Equal(t, replySearchError, state.Reply)
	assert.Empty(t, state.Result)
}

func TestHybridSearchTurn(t *testing.T) {
	sim := 0.9
	jobs := &fakeSearcher{results: []model.JobResult{{ID: 5, Similarity: &sim}}}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{
		Search: true,
		Condition: model.Condition{
			Place:        strPtr("서울시 강남구"),
			Requirements: strPtr("바리스타 자격증"),
		},
	}
	g.Run(context.Background(), state)

	assert.Equal(t, 1, jobs.hybridCalls)
	assert.Equal(t, repository.EmbeddingColumn768, jobs.gotColumn)
	assert.Equal(t, 0.4, jobs.gotThresh)
	assert.Equal(t, []float32{0.1, 0.2}, jobs.gotVector)
	assert.Equal(t, "하이브리드 검색 결과: 1개의 일자리를 찾았습니다.", state.Reply)
	require.Len(t, state.Result, 1)
	assert.Equal(t, int64(5), state.Result[0].ID)
}

func TestHybridSearchTurnExplicitModelAndThreshold(t *testing.T) {
	jobs := &fakeSearcher{results: []model.JobResult{}}
	g := newTestGraph(&stubChatModel{}, jobs)
	g.RegisterProvider(model.EmbeddingModelOpenAI, &fakeEmbedder{vector: []float32{0.3}}, repository.EmbeddingColumn1536)

	state := &model.ChatState{
		Search:              true,
		Condition:           model.Condition{Requirements: strPtr("수영 강사 자격증")},
		EmbeddingModel:      model.EmbeddingModelOpenAI,
		SimilarityThreshold: 0.6,
	}
	g.Run(context.Background(), state)

	assert.Equal(t, repository.EmbeddingColumn1536, jobs.gotColumn)
	assert.Equal(t, 0.6, jobs.gotThresh)
	assert.Equal(t, replyNoResults, state.Reply)
}

func TestHybridSearchTurnUnknownModel(t *testing.T) {
	jobs := &fakeSearcher{}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{
		Search:         true,
		Condition:      model.Condition{Requirements: strPtr("운전 면허증")},
		EmbeddingModel: "word2vec",
	}
	g.Run(context.Background(), state)

	assert.Equal(t, replyEmbeddingError, state.Reply)
	assert.Zero(t, jobs.hybridCalls)
}

func TestHybridSearchTurnEmbedderFailure(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
	}{
		{"provider error", &fakeEmbedder{err: errors.New("encoder unavailable")}},
		{"empty vector", &fakeEmbedder{vector: []float32{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := &fakeSearcher{}
			g := newTestGraph(&stubChatModel{}, jobs)
			g.RegisterProvider(model.EmbeddingModelLocal, tt.embedder, repository.EmbeddingColumn768)

			state := &model.ChatState{
				Search:    true,
				Condition: model.Condition{Requirements: strPtr("운전 면허증")},
			}
			g.Run(context.Background(), state)

			assert.Equal(t, replyEmbeddingError, state.Reply)
			assert.Empty(t, state.Result)
			assert.Zero(t, jobs.hybridCalls)
		})
	}
}

// The hybrid node refuses to run without requirements even when invoked
// directly, instead of silently degrading to a relational search.
func TestHybridSearchNodeRequiresRequirements(t *testing.T) {
	jobs := &fakeSearcher{}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{Search: true}
	g.runHybridSearch(context.Background(), state)

	assert.Equal(t, replyNoRequirements, state.Reply)
	assert.Empty(t, state.Result)
	assert.Zero(t, jobs.hybridCalls)
}

func TestHybridSearchTurnStoreError(t *testing.T) {
	jobs := &fakeSearcher{err: errors.New("statement timeout")}
	g := newTestGraph(&stubChatModel{}, jobs)

	state := &model.ChatState{
		Search:    true,
		Condition: model.Condition{Requirements: strPtr("운전 면허증")},
	}
	g.Run(context.Background(), state)

	assert.Equal(t, replyHybridError, state.Reply)
	assert.Empty(t, state.Result)
}

// Two-turn scenario: a conversation turn accumulates the condition, then a
// search turn without requirements takes the relational path with that
// accumulated condition.
func TestTwoTurnConversationThenSearch(t *testing.T) {
	llm := &stubChatModel{reply: "```json\n" + `{
		"job_related": true,
		"condition": {"place": "서울특별시 강남구", "age": "30대", "gender": "남성"}
	}` + "\n```"}
	jobs := &fakeSearcher{results: []model.JobResult{{ID: 9}}}
	g := newTestGraph(llm, jobs)

	first := &model.ChatState{Text: "강남에 거주하는 35세 남자입니다."}
	g.Run(context.Background(), first)
	assert.Equal(t, replyConditionUpdated, first.Reply)

	second := &model.ChatState{Search: true, Condition: first.Condition}
	g.Run(context.Background(), second)

	require.NotNil(t, jobs.searchCond)
	require.NotNil(t, jobs.searchCond.Place)
	assert.Equal(t, "서울특별시 강남구", *jobs.searchCond.Place)
	assert.Equal(t, "조건에 맞는 일자리 1개를 찾았습니다.", second.Reply)
	assert.Zero(t, jobs.hybridCalls)
}
