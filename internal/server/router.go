// Package server exposes the GraphQL endpoint and its operational routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/MarcoPoloResearchLab/questgraph/internal/graph"
	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "questgraph_request_id"

	defaultHeartbeatInterval = 25 * time.Second
)

var (
	errMissingGraph  = errors.New("graph executor dependency required")
	errMissingHealth = errors.New("health executor dependency required")
	errMissingFeed   = errors.New("change feed dependency required")
)

// GraphExecutor runs GraphQL requests.
type GraphExecutor interface {
	Do(ctx context.Context, request graph.Request) *graphql.Result
}

// Dependencies describes the HTTP handler collaborators.
type Dependencies struct {
	Graph             GraphExecutor
	Health            storage.Executor
	Feed              *ChangeFeed
	AllowedOrigins    []string
	HeartbeatInterval time.Duration
	Logger            *zap.Logger
}

// NewHTTPHandler wires the routes.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Graph == nil {
		return nil, errMissingGraph
	}
	if deps.Health == nil {
		return nil, errMissingHealth
	}
	if deps.Feed == nil {
		return nil, errMissingFeed
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(logger))
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		graph:     deps.Graph,
		health:    deps.Health,
		feed:      deps.Feed,
		heartbeat: heartbeat,
		logger:    logger,
	}

	router.POST("/graphql", handler.handleGraphQLPost)
	router.GET("/graphql", handler.handleGraphQLGet)
	router.GET("/playground", gin.WrapH(playground.Handler("questgraph", "/graphql")))
	router.GET("/healthz", handler.handleHealth)
	router.GET("/events", handler.handleEvents)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			config.AllowAllOrigins = true
		}
	}
	if !config.AllowAllOrigins {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

// requestIDMiddleware keeps an inbound X-Request-ID or assigns a UUIDv7.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			generated, err := uuid.NewV7()
			if err != nil {
				generated = uuid.New()
			}
			requestID = generated.String()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func accessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("request_id", c.GetString(requestIDContextKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(started)))
	}
}

type httpHandler struct {
	graph     GraphExecutor
	health    storage.Executor
	feed      *ChangeFeed
	heartbeat time.Duration
	logger    *zap.Logger
}

type requestErrorPayload struct {
	Errors []requestErrorMessage `json:"errors"`
}

type requestErrorMessage struct {
	Message string `json:"message"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, requestErrorPayload{Errors: []requestErrorMessage{{Message: message}}})
}

func (h *httpHandler) handleGraphQLPost(c *gin.Context) {
	var request graph.Request
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "request body must be a JSON GraphQL request")
		return
	}
	h.execute(c, request)
}

func (h *httpHandler) handleGraphQLGet(c *gin.Context) {
	request := graph.Request{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &request.Variables); err != nil {
			badRequest(c, "variables must be a JSON object")
			return
		}
	}
	h.execute(c, request)
}

func (h *httpHandler) execute(c *gin.Context, request graph.Request) {
	if strings.TrimSpace(request.Query) == "" {
		badRequest(c, "query is required")
		return
	}
	result := h.graph.Do(c.Request.Context(), request)
	if len(result.Errors) > 0 {
		h.logger.Debug("graphql request returned errors",
			zap.String("request_id", c.GetString(requestIDContextKey)),
			zap.Int("errors", len(result.Errors)))
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	if err := storage.Ping(c.Request.Context(), h.health); err != nil {
		h.logger.Warn("health probe failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type changeEventPayload struct {
	Table     string `json:"table"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// handleEvents streams append events as server-sent events. Repeated table
// query parameters narrow the stream.
func (h *httpHandler) handleEvents(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming_unsupported"})
		return
	}
	query, err := url.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_query"})
		return
	}
	tables := query["table"]
	for _, table := range tables {
		if !storage.ValidIdentifier(table) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_table"})
			return
		}
	}

	ctx := c.Request.Context()
	stream, cleanup := h.feed.Subscribe(ctx, tables...)
	defer cleanup()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(changeEventPayload{
				Table:     event.Table,
				Timestamp: storage.FormatTimestamp(event.Timestamp),
				Source:    realtimeSource,
			})
			if err != nil {
				h.logger.Error("failed to encode change event", zap.Error(err))
				continue
			}
			if !writeEvent(c.Writer, flusher, EventRowAppended, payload) {
				return
			}
		case <-ticker.C:
			if !writeEvent(c.Writer, flusher, realtimeEventHeartbeat, []byte(`{}`)) {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data []byte) bool {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
