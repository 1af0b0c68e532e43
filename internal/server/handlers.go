package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/scanreview/reconciler/internal/common"
	"github.com/scanreview/reconciler/internal/dedup"
	"github.com/scanreview/reconciler/internal/entity"
	"github.com/scanreview/reconciler/internal/reconcile"
)

// Handler exposes the reconciliation entry points over HTTP.
type Handler struct {
	svc     *reconcile.Service
	metrics *Metrics
	logger  *slog.Logger
}

func NewHandler(svc *reconcile.Service, metrics *Metrics, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, metrics: metrics, logger: logger}
}

// DuplicateCheckRequest carries the fingerprint of a freshly uploaded
// receipt. All fingerprint fields are optional best-effort text.
type DuplicateCheckRequest struct {
	UserID         string `json:"user_id" validate:"required,uuid"`
	ReceiptID      string `json:"receipt_id" validate:"required,uuid"`
	StoreName      string `json:"store_name,omitempty"`
	PurchaseDate   string `json:"purchase_date,omitempty"`
	TotalAmount    string `json:"total_amount,omitempty"`
	SourceFilename string `json:"source_filename,omitempty"`
}

func (h *Handler) DuplicateCheck(c echo.Context) error {
	var req DuplicateCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id must be a UUID")
	}
	receiptID, err := uuid.Parse(req.ReceiptID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "receipt_id must be a UUID")
	}

	res, err := h.svc.CheckUpload(c.Request().Context(), userID, receiptID, dedup.Fingerprint{
		StoreName:      req.StoreName,
		PurchaseDate:   req.PurchaseDate,
		TotalAmount:    req.TotalAmount,
		SourceFilename: req.SourceFilename,
	})
	if err != nil {
		h.logger.Error("duplicate check failed", "user_id", userID, "receipt_id", receiptID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "duplicate check failed")
	}
	h.metrics.RecordDuplicateCheck(string(res.Decision.Basis))
	return c.JSON(http.StatusOK, res)
}

// MatchRequest asks for the best line-item match on a receipt.
type MatchRequest struct {
	ReceiptID  string `json:"receipt_id" validate:"required,uuid"`
	TargetCode string `json:"target_code,omitempty"`
	TargetName string `json:"target_name" validate:"required"`
}

func (h *Handler) Match(c echo.Context) error {
	var req MatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	receiptID, err := uuid.Parse(req.ReceiptID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "receipt_id must be a UUID")
	}

	outcome, err := h.svc.MatchLineItems(c.Request().Context(), receiptID, entity.TargetProduct{
		Code: req.TargetCode,
		Name: req.TargetName,
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "receipt not found")
		}
		h.logger.Error("match failed", "receipt_id", receiptID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "match failed")
	}
	h.metrics.RecordMatch(outcome.Result.Item != nil, outcome.Result.Score)
	return c.JSON(http.StatusOK, outcome)
}

// ScoreResponse is the percentage badge payload.
type ScoreResponse struct {
	Score float64 `json:"score"`
}

func (h *Handler) Score(c echo.Context) error {
	a := c.QueryParam("a")
	b := c.QueryParam("b")
	return c.JSON(http.StatusOK, ScoreResponse{Score: h.svc.ScoreForDisplay(a, b)})
}
