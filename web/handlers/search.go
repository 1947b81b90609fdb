package handlers

import (
	"net/http"

	"correspondence/corpus"
	"correspondence/retrieval"
	"correspondence/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchHandler serves ranked retrieval.
type SearchHandler struct {
	engine *retrieval.Engine
	latest *retrieval.Latest
	logger *zap.Logger
}

func NewSearchHandler(engine *retrieval.Engine, latest *retrieval.Latest, logger *zap.Logger) *SearchHandler {
	if latest == nil {
		latest = retrieval.NewLatest()
	}
	return &SearchHandler{engine: engine, latest: latest, logger: logger}
}

// Search handles GET /search?q=...&date_from=...&mode=...
// A newer search from the same client supersedes this one; the superseded
// request is answered with 409.
func (h *SearchHandler) Search(c *gin.Context) {
	text := c.Query("q")
	q, err := corpus.ParseQuery(text, corpus.RawFilters{
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
		Type:      c.Query("type"),
		Severity:  c.Query("severity"),
		Direction: c.Query("direction"),
		Keywords:  c.Query("keywords"),
		LetterNo:  c.Query("letter_no"),
		Mode:      c.Query("mode"),
		Limit:     c.Query("limit"),
	})
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, err.Error())
		return
	}

	key := c.ClientIP()
	if id, ok := middleware.ClientID(c); ok {
		key = id.String()
	}

	resp, err := h.engine.SearchLatest(c.Request.Context(), h.latest, key, q)
	if err != nil {
		respondWithAppError(c, err, h.logger, zap.String("query", text))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   q,
		"stage":   resp.Stage,
		"count":   len(resp.Results),
		"results": resp.Results,
	})
}
