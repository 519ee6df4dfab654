package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/inspect"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/intent"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/attention/internal/shared/id"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// submitTimeout bounds how long a request waits for its intent to apply
const submitTimeout = 5 * time.Second

// Handlers contains all HTTP handlers
type Handlers struct {
	coord  *intent.Coordinator
	store  *attention.Store
	logger *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(coord *intent.Coordinator, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		coord:  coord,
		store:  coord.Store(),
		logger: logger,
	}
}

// ElementRequest declares or updates a widget
type ElementRequest struct {
	ID   string         `json:"id"`
	Kind attention.Kind `json:"kind"`
	attention.Attributes
}

// ModalityRequest changes the active modality
type ModalityRequest struct {
	Modality attention.Modality `json:"modality" binding:"required"`
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Attention Budget Service",
		"version": Version,
	})
}

// Health reports store statistics
func (h *Handlers) Health(c *gin.Context) {
	budget := h.store.Context().Attention
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"store":  h.store.Stats(),
		"budget": budget,
	})
}

// GetContext returns the current context
func (h *Handlers) GetContext(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Context())
}

// UpdateContext merges a partial update into the context
func (h *Handlers) UpdateContext(c *gin.Context) {
	var req attention.ContextUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.submit(c, intent.UpdateContext(req)) {
		return
	}
	c.JSON(http.StatusOK, h.store.Context())
}

// SetModality changes the modality
func (h *Handlers) SetModality(c *gin.Context) {
	var req ModalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.submit(c, intent.SetModality(req.Modality)) {
		return
	}
	c.JSON(http.StatusOK, h.store.Context())
}

// ListElements returns a full snapshot in rank order
func (h *Handlers) ListElements(c *gin.Context) {
	c.JSON(http.StatusOK, inspect.Take(h.store))
}

// DeclareElement creates a widget and registers it
func (h *Handlers) DeclareElement(c *gin.Context) {
	var req ElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := req.Kind
	if kind == "" {
		kind = attention.KindCard
	}

	var widget *attention.Widget
	if req.ID == "" {
		widget = attention.NewWidget(kind, req.Attributes)
	} else {
		if err := id.Validate(req.ID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, exists := h.store.Element(req.ID); exists {
			c.JSON(http.StatusConflict, gin.H{"error": "element already registered", "id": req.ID})
			return
		}
		widget = attention.NewWidgetWithID(req.ID, kind, req.Attributes)
	}

	if !h.submit(c, intent.Register(widget)) {
		return
	}

	c.JSON(http.StatusCreated, h.view(widget.ID()))
}

// UpdateElement replaces a declared widget's attributes and reallocates
func (h *Handlers) UpdateElement(c *gin.Context) {
	elementID := c.Param("id")

	var req ElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.submit(c, intent.Configure(elementID, req.Attributes)) {
		return
	}
	c.JSON(http.StatusOK, h.view(elementID))
}

// RemoveElement unregisters an element. Removing an unknown ID succeeds.
func (h *Handlers) RemoveElement(c *gin.Context) {
	elementID := c.Param("id")
	_, existed := h.store.Element(elementID)

	if !h.submit(c, intent.Unregister(elementID)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      elementID,
		"removed": existed,
	})
}

// Allocate forces an allocation pass and returns the result
func (h *Handlers) Allocate(c *gin.Context) {
	if !h.submit(c, intent.Refresh()) {
		return
	}
	c.JSON(http.StatusOK, inspect.Take(h.store))
}

// submit routes in through the coordinator and writes the error response
// when it fails
func (h *Handlers) submit(c *gin.Context, in intent.Intent) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), submitTimeout)
	defer cancel()

	err := h.coord.Submit(ctx, in)
	switch {
	case err == nil:
		return true
	case errors.Is(err, intent.ErrInvalidIntent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, attention.ErrUnknownWidget):
		c.JSON(http.StatusNotFound, gin.H{"error": "widget not found", "id": in.ElementID})
	default:
		h.logger.Error("Intent not applied",
			zap.String("kind", string(in.Kind)),
			tracing.Field(c.Request.Context()),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
	return false
}

func (h *Handlers) view(elementID string) inspect.ElementView {
	for _, v := range inspect.Take(h.store).Elements {
		if v.ID == elementID {
			return v
		}
	}
	return inspect.ElementView{ID: elementID, Outcome: attention.OutcomePending}
}

// Register mounts the handlers on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/context", h.GetContext)
	r.PUT("/context", h.UpdateContext)
	r.PUT("/context/modality", h.SetModality)

	r.GET("/elements", h.ListElements)
	r.POST("/elements", h.DeclareElement)
	r.PUT("/elements/:id", h.UpdateElement)
	r.DELETE("/elements/:id", h.RemoveElement)

	r.POST("/allocate", h.Allocate)
}
