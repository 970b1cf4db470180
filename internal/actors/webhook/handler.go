package webhook

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
)

type syncUsecase interface {
	HandleEvent(ctx context.Context, event model.IdentityEvent) (*model.SyncResult, error)
}

// HandlerArgs are the mandatory args to instantiate the Handler.
type HandlerArgs struct {
	// Verifier authenticates inbound deliveries. A nil verifier means the
	// signing secret is not configured: the handler fails closed with 500
	// instead of skipping verification.
	Verifier *Verifier

	// Usecase is the reconciliation usecase.
	Usecase syncUsecase
}

// HandlerOptArgs are the optional arguments for building a Handler.
type HandlerOptArgs = func(*Handler)

// WithReplayCache installs a best-effort duplicate-delivery cache.
func WithReplayCache(cache ports.ReplayCache) HandlerOptArgs {
	return func(h *Handler) {
		h.replay = cache
	}
}

// NewHandler creates a new Handler.
func NewHandler(args HandlerArgs, optArgs ...HandlerOptArgs) *Handler {
	h := &Handler{verifier: args.Verifier, usecase: args.Usecase}
	for _, opt := range optArgs {
		opt(h)
	}
	return h
}

// Handler exposes the identity-provider webhook over HTTP.
type Handler struct {
	verifier *Verifier
	usecase  syncUsecase
	replay   ports.ReplayCache
}

// Register mounts the webhook and health routes on the engine.
func (h *Handler) Register(router *gin.Engine) {
	router.POST("/api/webhooks/clerk", h.handleWebhook)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "Ok"})
	})
}

func (h *Handler) handleWebhook(c *gin.Context) {
	if h.verifier == nil {
		// Operational alert: the service is deployed without its signing
		// secret. Never fall through to unverified processing.
		log.Error("webhook signing secret is not configured, rejecting delivery")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook verification is not configured"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		log.WithError(err).Warn("could not read webhook request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	if err := h.verifier.Verify(c.Request.Header, body); err != nil {
		log.WithError(err).Warn("rejected webhook delivery")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
		return
	}

	event, err := decodeEvent(body)
	if err != nil {
		log.WithError(err).Warn("malformed webhook payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		return
	}

	if h.replay != nil {
		messageID := c.GetHeader(HeaderID)
		seen, err := h.replay.Remember(c.Request.Context(), messageID)
		if err != nil {
			// Best-effort: dedup outage must not block deliveries.
			log.WithError(err).Warn("replay cache unavailable, processing delivery anyway")
		} else if seen {
			log.WithField("message_id", messageID).Info("skipping duplicate webhook delivery")
			c.JSON(http.StatusOK, gin.H{"success": true, "duplicate": true})
			return
		}
	}

	result, err := h.usecase.HandleEvent(c.Request.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidEvent):
			log.WithError(err).Warn("webhook event failed validation")
			c.JSON(http.StatusBadRequest, gin.H{"error": "event is missing required fields"})
		case errors.Is(err, model.ErrNotFound):
			log.WithField("external_id", event.ExternalID).Warn("attempt to update non-existing user")
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.WithError(err).Error("error invoking usecase HandleEvent")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	response := gin.H{"success": true, "outcome": result.Outcome}
	if result.User != nil {
		response["user"] = result.User
	}
	c.JSON(http.StatusOK, response)
}
