package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparisonService *usecase.ComparisonService
}

// NewHandler creates a new HTTP handler
func NewHandler(comparisonService *usecase.ComparisonService) *Handler {
	return &Handler{comparisonService: comparisonService}
}

// CompareRequest carries one canonical product and the raw listing pools
// the connector layer fetched for it
type CompareRequest struct {
	Product         domain.ProductInfo     `json:"product" binding:"required"`
	RakutenListings []domain.SourceListing `json:"rakutenListings"`
	AmazonListings  []domain.SourceListing `json:"amazonListings"`
}

// NormalizeRequest carries one raw listing to normalize
type NormalizeRequest struct {
	ProductID string               `json:"productId" binding:"required"`
	Source    domain.SourceTag     `json:"source" binding:"required"`
	Listing   domain.SourceListing `json:"listing" binding:"required"`
}

// NormalizeResponse pairs the normalized price with its validation report
type NormalizeResponse struct {
	Price      domain.NormalizedPrice  `json:"price"`
	Validation domain.ValidationResult `json:"validation"`
}

// AnalyzeRequest carries cost records to analyze
type AnalyzeRequest struct {
	Costs []domain.CostPerDay `json:"costs" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": "1.0.0",
	})
}

// CompareProduct runs the full comparison pipeline for one product
func (h *Handler) CompareProduct(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.comparisonService.CompareProduct(
		c.Request.Context(), &req.Product, req.RakutenListings, req.AmazonListings)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// NormalizePrice normalizes a single raw listing and reports validation
func (h *Handler) NormalizePrice(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	normalizer := h.comparisonService.Normalizer()
	price := normalizer.Normalize(req.Listing, req.Source, req.ProductID)

	c.JSON(http.StatusOK, NormalizeResponse{
		Price:      price,
		Validation: normalizer.ValidatePrice(price),
	})
}

// AnalyzeCosts runs descriptive statistics and recommendations over a set
// of cost records supplied by the caller
func (h *Handler) AnalyzeCosts(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if len(req.Costs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "costs must not be empty"})
		return
	}

	analysis := h.comparisonService.Calculator().AnalyzeCostPerformance(req.Costs)
	c.JSON(http.StatusOK, analysis)
}
