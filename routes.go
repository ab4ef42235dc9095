package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pharma-graph/config"
	"pharma-graph/graph"
	"pharma-graph/services"
)

// mentionView ist eine Erwähnung in der Ausgabe von CLI und API.
type mentionView struct {
	MentionType graph.MentionKind `json:"mention_type"`
	Date        *time.Time        `json:"date"`
	Node        graph.Node        `json:"node"`
}

func mentionViews(res map[string][]*graph.Link) map[string][]mentionView {
	out := make(map[string][]mentionView, len(res))
	for name, links := range res {
		views := make([]mentionView, 0, len(links))
		for _, l := range links {
			views = append(views, mentionView{MentionType: l.MentionKind(), Date: l.Date(), Node: l.NodeB()})
		}
		out[name] = views
	}
	return out
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newRouter(cfg *config.Config, svc *services.GraphService, log *zap.Logger) *gin.Engine {
	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "graph_loaded": svc.Current() != nil})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Use(apiKeyAuthMiddleware(cfg))
	setupGraphRoutes(router, svc, log)
	return router
}

func setupGraphRoutes(router *gin.Engine, svc *services.GraphService, log *zap.Logger) {
	rg := router.Group("/graph")

	current := func(c *gin.Context) *graph.Graph {
		g := svc.Current()
		if g == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrNoGraph.Error()})
		}
		return g
	}

	// GET /graph/mentions?drug=a&drug=b
	rg.GET("/mentions", func(c *gin.Context) {
		drugs := c.QueryArray("drug")
		if len(drugs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one drug query parameter is required"})
			return
		}
		g := current(c)
		if g == nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{"mentions": mentionViews(g.MentionsOf(drugs))})
	})

	rg.GET("/journals/stats", func(c *gin.Context) {
		g := current(c)
		if g == nil {
			return
		}
		stats := g.DistinctDrugCountPerJournal()
		if stats == nil {
			stats = []graph.JournalStat{}
		}
		c.JSON(http.StatusOK, gin.H{"journals": stats})
	})

	rg.GET("/summary", func(c *gin.Context) {
		g := current(c)
		if g == nil {
			return
		}
		c.JSON(http.StatusOK, g.Summarize())
	})

	rg.POST("/rebuild", func(c *gin.Context) {
		g, err := svc.Rebuild(c.Request.Context())
		if err != nil {
			if errors.Is(err, services.ErrRebuildRunning) {
				c.JSON(http.StatusConflict, gin.H{"error": "rebuild already running"})
				return
			}
			log.Error("Rebuild failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "rebuild failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "graph rebuilt", "summary": g.Summarize()})
	})

	rg.GET("/snapshots", func(c *gin.Context) {
		if svc.Store == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "snapshot store disabled"})
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		snapshots, err := svc.Store.List(c.Request.Context(), limit)
		if err != nil {
			log.Error("Failed to list snapshots", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
	})
}
