package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanreview/reconciler/internal/entity"
	"github.com/scanreview/reconciler/internal/match"
	"github.com/scanreview/reconciler/internal/reconcile"
)

type memRepo struct {
	receipts map[uuid.UUID]*entity.Receipt
	items    map[uuid.UUID][]*entity.ReceiptLineItem
}

func newMemRepo() *memRepo {
	return &memRepo{
		receipts: make(map[uuid.UUID]*entity.Receipt),
		items:    make(map[uuid.UUID][]*entity.ReceiptLineItem),
	}
}

func (m *memRepo) GetReceipt(_ context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return m.receipts[id], nil
}

func (m *memRepo) CreateReceipt(_ context.Context, rec *entity.Receipt) error {
	m.receipts[rec.ID] = rec
	return nil
}

func (m *memRepo) DeleteReceipt(_ context.Context, id uuid.UUID) error {
	delete(m.receipts, id)
	delete(m.items, id)
	return nil
}

func (m *memRepo) ListOtherReceipts(_ context.Context, userID, exclude uuid.UUID) ([]*entity.Receipt, error) {
	var out []*entity.Receipt
	for _, rec := range m.receipts {
		if rec.UserID == userID && rec.ID != exclude {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memRepo) ListLineItems(_ context.Context, receiptID uuid.UUID) ([]*entity.ReceiptLineItem, error) {
	return m.items[receiptID], nil
}

func (m *memRepo) CreateLineItems(_ context.Context, items []*entity.ReceiptLineItem) error {
	for _, it := range items {
		m.items[it.ReceiptID] = append(m.items[it.ReceiptID], it)
	}
	return nil
}

func (m *memRepo) SetLineItemScore(_ context.Context, _ uuid.UUID, _ float64) error {
	return nil
}

func (m *memRepo) ResolveStores(_ context.Context, _ string) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *memRepo) CreateStore(_ context.Context, _ *entity.StoreIdentity) error {
	return nil
}

// The server registers prometheus collectors on the default registry, so it
// is assembled exactly once and exercised through subtests.
func TestServerEndpoints(t *testing.T) {
	repo := newMemRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := reconcile.NewService(repo, repo, match.DefaultConfig(), logger)
	e := New(svc, nil, logger)

	userID := uuid.New()
	total := decimal.RequireFromString("12.47")
	existing := &entity.Receipt{
		ID:         uuid.New(),
		UserID:     userID,
		Total:      &total,
		UploadedAt: time.Now(),
	}
	repo.receipts[existing.ID] = existing
	repo.items[existing.ID] = []*entity.ReceiptLineItem{
		{ID: uuid.New(), ReceiptID: existing.ID, Designation: "Yaourt Nature Bio 125g", LineOrder: 0},
		{ID: uuid.New(), ReceiptID: existing.ID, Designation: "Pain complet", LineOrder: 1},
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("healthz without a pool", func(t *testing.T) {
		rec := do(http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "healthy")
	})

	t.Run("duplicate check finds field match", func(t *testing.T) {
		fresh := &entity.Receipt{ID: uuid.New(), UserID: userID, UploadedAt: time.Now()}
		repo.receipts[fresh.ID] = fresh

		body := `{"user_id":"` + userID.String() + `","receipt_id":"` + fresh.ID.String() + `","total_amount":"12.50"}`
		rec := do(http.MethodPost, "/v1/duplicate-check", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res struct {
			Decision struct {
				IsDuplicate bool   `json:"is_duplicate"`
				Basis       string `json:"confidence_basis"`
			} `json:"decision"`
			SurvivingReceiptID string `json:"surviving_receipt_id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(t, res.Decision.IsDuplicate)
		assert.Equal(t, "EXACT_FIELDS", res.Decision.Basis)
		assert.Equal(t, existing.ID.String(), res.SurvivingReceiptID)
	})

	t.Run("duplicate check rejects non-uuid user", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/duplicate-check", `{"user_id":"not-a-uuid","receipt_id":"`+uuid.NewString()+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("match returns scored items", func(t *testing.T) {
		body := `{"receipt_id":"` + existing.ID.String() + `","target_name":"Yaourt Nature Bio 125g","target_code":"3017620422003"}`
		rec := do(http.MethodPost, "/v1/match", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out struct {
			Result struct {
				Score float64 `json:"score"`
			} `json:"result"`
			Preselect      bool `json:"preselect"`
			AutoApprovable bool `json:"auto_approvable"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.InDelta(t, 1.0, out.Result.Score, 1e-9)
		assert.True(t, out.Preselect)
		assert.True(t, out.AutoApprovable)
	})

	t.Run("match requires target name", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/match", `{"receipt_id":"`+existing.ID.String()+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("score badge", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/score?a=Nutella+400g&b=nutella+400g", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var res ScoreResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.InDelta(t, 1.0, res.Score, 1e-9)
	})
}
