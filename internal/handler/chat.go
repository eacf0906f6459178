package handler

import (
	"log"
	"net/http"

	"gigchat/internal/model"
	"gigchat/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles the conversational turn endpoint.
type ChatHandler struct {
	graph            *service.ChatGraph
	defaultModel     string
	defaultThreshold float64
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(graph *service.ChatGraph, defaultModel string, defaultThreshold float64) *ChatHandler {
	return &ChatHandler{
		graph:            graph,
		defaultModel:     defaultModel,
		defaultThreshold: defaultThreshold,
	}
}

// Chat handles POST /chat: one conversation turn through the dialogue graph.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, respError(CodeNotOK, "invalid request: "+err.Error()))
		return
	}

	if req.EmbeddingModel == "" {
		req.EmbeddingModel = h.defaultModel
	}
	if req.SimilarityThreshold <= 0 {
		req.SimilarityThreshold = h.defaultThreshold
	}

	state := &model.ChatState{
		UserID:              req.UserID,
		Text:                req.Text,
		Condition:           model.Normalize(model.ConditionFromJSON(req.Condition)),
		Search:              req.Search,
		EmbeddingModel:      req.EmbeddingModel,
		SimilarityThreshold: req.SimilarityThreshold,
	}

	h.graph.Run(c.Request.Context(), state)

	log.Printf("[chat] turn done - %d results", len(state.Result))
	c.JSON(http.StatusOK, respOK(state.ChatResult()))
}
