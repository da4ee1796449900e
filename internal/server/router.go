package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mastergate/internal/auth"
	"mastergate/internal/gate"
	"mastergate/internal/logging"
	"mastergate/internal/queue"
)

const userIDContextKey = "mastergate_user_id"

var (
	errMissingTokens       = errors.New("token validator dependency required")
	errMissingOrchestrator = errors.New("orchestrator dependency required")
	errMissingStore        = errors.New("submission store dependency required")
)

// TokenValidator checks bearer tokens and returns the authenticated user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Pipeline is the orchestrator surface the API drives.
type Pipeline interface {
	Process(ctx context.Context, userID string) gate.Outcome
	Status(ctx context.Context, userID string) gate.Outcome
}

// SubmissionStore is the queue surface used by intake and introspection
// endpoints.
type SubmissionStore interface {
	Enqueue(ctx context.Context, userID, contentHash, sourcePath string) (*queue.Submission, error)
	GetByID(ctx context.Context, id int64) (*queue.Submission, error)
	ListForUser(ctx context.Context, userID string, statuses ...queue.Status) ([]*queue.Submission, error)
	Stats(ctx context.Context) (queue.StatsSummary, error)
	Ping(ctx context.Context) error
}

// Auditor records authentication and authorization anomalies.
type Auditor interface {
	RecordAuthRejected(ctx context.Context, remoteAddr, reason string)
	RecordUnauthorizedClaim(ctx context.Context, userID string, submissionID int64)
}

// Dependencies wires the HTTP surface to its collaborators.
type Dependencies struct {
	Tokens       TokenValidator
	Orchestrator Pipeline
	Store        SubmissionStore
	Auditor      Auditor
	Logger       *slog.Logger
}

// NewHTTPHandler builds the gate API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Tokens == nil {
		return nil, errMissingTokens
	}
	if deps.Orchestrator == nil {
		return nil, errMissingOrchestrator
	}
	if deps.Store == nil {
		return nil, errMissingStore
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:       deps.Tokens,
		orchestrator: deps.Orchestrator,
		store:        deps.Store,
		auditor:      deps.Auditor,
		logger:       logging.NewComponentLogger(deps.Logger, "api"),
	}

	router.GET("/api/health", handler.handleHealth)

	protected := router.Group("/api")
	protected.Use(handler.authorizeRequest)
	protected.POST("/gate/process", handler.handleProcess)
	protected.GET("/gate/status", handler.handleStatus)
	protected.POST("/submissions", handler.handleSubmit)
	protected.GET("/queue", handler.handleQueue)

	return router, nil
}

type httpHandler struct {
	tokens       TokenValidator
	orchestrator Pipeline
	store        SubmissionStore
	auditor      Auditor
	logger       *slog.Logger
}

// authorizeRequest resolves submitter identity from the Authorization header
// before any queue access. Requests without a valid bearer token never reach
// a handler.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token, ok := auth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		h.rejectUnauthorized(c, "missing bearer token")
		return
	}
	userID, err := h.tokens.Validate(token)
	if err != nil {
		h.rejectUnauthorized(c, err.Error())
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func (h *httpHandler) rejectUnauthorized(c *gin.Context, reason string) {
	if h.auditor != nil {
		h.auditor.RecordAuthRejected(c.Request.Context(), c.ClientIP(), reason)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gate.CodeUnauthorized})
}

type processRequestPayload struct {
	QueueID string `json:"queue_id"`
}

func (h *httpHandler) handleProcess(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	// An explicit claim target is optional; when present it must belong to
	// the caller.
	if c.Request.ContentLength > 0 {
		var request processRequestPayload
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		if strings.TrimSpace(request.QueueID) != "" {
			if !h.authorizeClaimTarget(c, userID, request.QueueID) {
				return
			}
		}
	}

	outcome := h.orchestrator.Process(c.Request.Context(), userID)
	c.JSON(outcome.HTTPStatus(), outcome)
}

// authorizeClaimTarget verifies the explicit queue id names one of the
// caller's own submissions. A foreign target is forbidden and audit-logged.
func (h *httpHandler) authorizeClaimTarget(c *gin.Context, userID, queueID string) bool {
	id, err := strconv.ParseInt(queueID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return false
	}
	item, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "claim target lookup failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gate.CodeQueueClaimFailed})
		return false
	}
	if item == nil || item.UserID != userID {
		if h.auditor != nil && item != nil {
			h.auditor.RecordUnauthorizedClaim(c.Request.Context(), userID, item.ID)
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}

func (h *httpHandler) handleStatus(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	outcome := h.orchestrator.Status(c.Request.Context(), userID)
	c.JSON(outcome.HTTPStatus(), outcome)
}

type submitRequestPayload struct {
	SourcePath  string `json:"source_path"`
	ContentHash string `json:"content_hash"`
}

type submissionPayload struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	ContentHash string `json:"content_hash"`
	SourcePath  string `json:"source_path"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func (h *httpHandler) handleSubmit(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	var request submitRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.SourcePath) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	contentHash := strings.TrimSpace(request.ContentHash)
	if contentHash == "" {
		computed, err := gate.HashFile(request.SourcePath)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_source"})
			return
		}
		contentHash = computed
	}

	item, err := h.store.Enqueue(c.Request.Context(), userID, contentHash, request.SourcePath)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "submission intake failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed"})
		return
	}
	c.JSON(http.StatusCreated, toSubmissionPayload(item))
}

func (h *httpHandler) handleQueue(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	items, err := h.store.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "queue listing failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue_list_failed"})
		return
	}
	payload := make([]submissionPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, toSubmissionPayload(item))
	}
	c.JSON(http.StatusOK, gin.H{"submissions": payload})
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"queue": gin.H{
			"total":      stats.Total,
			"pending":    stats.Pending,
			"processing": stats.Processing,
			"approved":   stats.Approved,
			"rejected":   stats.Rejected,
		},
	})
}

func toSubmissionPayload(item *queue.Submission) submissionPayload {
	return submissionPayload{
		ID:          item.ID,
		Status:      string(item.Status),
		ContentHash: item.ContentHash,
		SourcePath:  item.SourcePath,
		Reason:      item.DecisionReason,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
	}
}
