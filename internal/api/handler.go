package api

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RichardoC/inbox/internal/controller"
	"github.com/RichardoC/inbox/internal/store"
)

// Handler exposes the list and thread controllers to the rendering
// surface. Controllers are single-actor, so every request holds mu.
type Handler struct {
	mu     sync.Mutex
	store  store.Store
	list   *controller.ConversationList
	thread *controller.Thread
	logger *zap.Logger
}

func NewHandler(s store.Store, list *controller.ConversationList, thread *controller.Thread, logger *zap.Logger) *Handler {
	return &Handler{
		store:  s,
		list:   list,
		thread: thread,
		logger: logger,
	}
}

type NavigateRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
}

type SearchRequest struct {
	Term string `json:"term"`
}

type DraftRequest struct {
	Text string `json:"text"`
}

type ConversationsResponse struct {
	SearchTerm string                `json:"search_term"`
	ActiveID   string                `json:"active_id,omitempty"`
	Items      []controller.ListItem `json:"items"`
}

type SuggestResponse struct {
	Draft string `json:"draft"`
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// fail maps store and controller errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, controller.ErrUnknownAffordance):
		errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, controller.ErrNoConversation):
		errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrSuggestionsDisabled):
		errorJSON(c, http.StatusNotImplemented, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}
}

// GetConversations is read-only: a q parameter filters this response
// only, otherwise the stored search term applies.
func (h *Handler) GetConversations(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	term, ok := c.GetQuery("q")
	if !ok {
		term = h.list.SearchTerm()
	}
	items, err := h.list.Filter(term)
	if err != nil {
		h.fail(c, "list conversations", err)
		return
	}

	h.logger.Debug("Retrieved conversations",
		zap.Int("count", len(items)),
		zap.String("searchTerm", term))

	c.JSON(http.StatusOK, ConversationsResponse{
		SearchTerm: term,
		ActiveID:   h.list.ActiveID(),
		Items:      items,
	})
}

// SetSearch stores the list's search term and returns the filtered rows.
func (h *Handler) SetSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.list.SetSearchTerm(req.Term)
	items, err := h.list.Items()
	if err != nil {
		h.fail(c, "set search term", err)
		return
	}
	c.JSON(http.StatusOK, ConversationsResponse{
		SearchTerm: h.list.SearchTerm(),
		ActiveID:   h.list.ActiveID(),
		Items:      items,
	})
}

func (h *Handler) SearchUsers(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	users, err := h.list.SearchPeers(c.Query("q"))
	if err != nil {
		h.fail(c, "search users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Navigate opens a conversation. Unknown ids are not an error: the thread
// view reports not_found instead.
func (h *Handler) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.thread.Open(req.ConversationID)
	h.list.SetActive(req.ConversationID)
	c.JSON(http.StatusOK, h.thread.View())
}

func (h *Handler) Back(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.thread.Close()
	h.list.ClearActive()
	c.JSON(http.StatusOK, h.thread.View())
}

func (h *Handler) GetThread(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.JSON(http.StatusOK, h.thread.View())
}

func (h *Handler) UpdateDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.thread.UpdateDraft(req.Text)
	c.JSON(http.StatusOK, h.thread.View())
}

// SubmitDraft answers 201 with the new message, or 204 when the draft
// was blank and nothing was sent.
func (h *Handler) SubmitDraft(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg, err := h.thread.SubmitDraft()
	if err != nil {
		h.fail(c, "submit draft", err)
		return
	}
	if msg == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) SuggestDraft(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	draft, err := h.thread.SuggestDraft(c.Request.Context())
	if err != nil {
		h.fail(c, "suggest draft", err)
		return
	}
	c.JSON(http.StatusOK, SuggestResponse{Draft: draft})
}

func (h *Handler) Toggle(c *gin.Context) {
	a, err := controller.ParseAffordance(c.Param("name"))
	if err != nil {
		h.fail(c, "toggle", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	notice, err := h.thread.Toggle(a)
	if err != nil {
		h.fail(c, "toggle", err)
		return
	}
	c.JSON(http.StatusOK, notice)
}

func (h *Handler) GetAffordances(c *gin.Context) {
	c.JSON(http.StatusOK, controller.Capabilities())
}

func (h *Handler) SearchMessages(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		errorJSON(c, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	results, err := h.store.SearchMessages(query)
	if err != nil {
		h.fail(c, "search messages", err)
		return
	}
	c.JSON(http.StatusOK, results)
}
