package handlers

import (
	"net/http"

	"correspondence/graph"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GraphHandler serves the citation graph, islands and timelines.
type GraphHandler struct {
	explorer *graph.Explorer
	logger   *zap.Logger
}

func NewGraphHandler(explorer *graph.Explorer, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{explorer: explorer, logger: logger}
}

// Graph handles GET /graph.
func (h *GraphHandler) Graph(c *gin.Context) {
	g, err := h.explorer.Graph(c.Request.Context())
	if err != nil {
		respondWithAppError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Island handles GET /island/:letter.
func (h *GraphHandler) Island(c *gin.Context) {
	seed := c.Param("letter")
	island, err := h.explorer.Island(c.Request.Context(), seed)
	if err != nil {
		respondWithAppError(c, err, h.logger, zap.String("seed", seed))
		return
	}
	c.JSON(http.StatusOK, island)
}

// Timeline handles GET /timeline/:letter.
func (h *GraphHandler) Timeline(c *gin.Context) {
	seed := c.Param("letter")
	tl, err := h.explorer.Timeline(c.Request.Context(), seed)
	if err != nil {
		respondWithAppError(c, err, h.logger, zap.String("seed", seed))
		return
	}
	c.JSON(http.StatusOK, tl)
}
