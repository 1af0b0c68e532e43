package reconcile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/scanreview/reconciler/internal/dedup"
	"github.com/scanreview/reconciler/internal/entity"
	"github.com/scanreview/reconciler/internal/match"
	"github.com/scanreview/reconciler/internal/repository"
)

// Service coordinates the reconciliation flow: duplicate detection first,
// then line-item matching against the surviving receipt.
type Service struct {
	receipts repository.ReceiptRepository
	detector *dedup.Detector
	cfg      match.Config
	logger   *slog.Logger
}

func NewService(receipts repository.ReceiptRepository, stores repository.StoreRepository, cfg match.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		receipts: receipts,
		detector: dedup.NewDetector(receipts, stores, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// UploadResult reports which receipt survived a duplicate check and the
// line items all further processing should operate on.
type UploadResult struct {
	Decision           dedup.Decision            `json:"decision"`
	SurvivingReceiptID uuid.UUID                 `json:"surviving_receipt_id"`
	Items              []*entity.ReceiptLineItem `json:"items"`
}

// CheckUpload runs duplicate detection for a freshly uploaded receipt.
// On a field-based match the new receipt (and its line items) is discarded
// and the matched receipt's stored items are reloaded, so matching operates
// on the survivor. Filename-only matches are advisory: the new receipt is
// kept and the caller is expected to ask the user before merging.
func (s *Service) CheckUpload(ctx context.Context, userID, newReceiptID uuid.UUID, fp dedup.Fingerprint) (*UploadResult, error) {
	decision, err := s.detector.Check(ctx, userID, newReceiptID, fp)
	if err != nil {
		return nil, err
	}

	surviving := newReceiptID
	if decision.IsDuplicate && decision.Basis == dedup.BasisFields {
		surviving = *decision.MatchedReceiptID
		if err := s.receipts.DeleteReceipt(ctx, newReceiptID); err != nil {
			return nil, err
		}
		s.logger.Info("reconcile.dedup.merged",
			"user_id", userID,
			"discarded_receipt_id", newReceiptID,
			"surviving_receipt_id", surviving,
		)
	}

	items, err := s.receipts.ListLineItems(ctx, surviving)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		Decision:           decision,
		SurvivingReceiptID: surviving,
		Items:              items,
	}, nil
}

// MatchOutcome is the full matching verdict for one receipt and target.
type MatchOutcome struct {
	Result         match.Result              `json:"result"`
	Preselect      bool                      `json:"preselect"`
	AutoApprovable bool                      `json:"auto_approvable"`
	Items          []*entity.ReceiptLineItem `json:"items"`
}

// MatchLineItems scores a receipt's line items against a target product,
// persists the computed scores, and applies the selection policy. Items
// are returned sorted descending by score for display.
func (s *Service) MatchLineItems(ctx context.Context, receiptID uuid.UUID, target entity.TargetProduct) (*MatchOutcome, error) {
	items, err := s.receipts.ListLineItems(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	result := s.cfg.SelectBestMatch(items, target.Name)
	s.cfg.AttachScores(items, target.Name)
	for _, it := range items {
		if err := s.receipts.SetLineItemScore(ctx, it.ID, *it.MatchScore); err != nil {
			return nil, err
		}
	}
	match.SortByScoreDesc(items)

	s.logger.Info("reconcile.match.done",
		"receipt_id", receiptID,
		"target_code", target.Code,
		"best_score", result.Score,
		"accepted", result.Item != nil,
	)

	return &MatchOutcome{
		Result:         result,
		Preselect:      s.cfg.ShouldPreselect(false, result.Score),
		AutoApprovable: s.cfg.AllowsAutoApproval(result.Score),
		Items:          items,
	}, nil
}

// ScoreForDisplay renders one candidate/target score for a UI badge.
func (s *Service) ScoreForDisplay(a, b string) float64 {
	return s.cfg.Weights.Score(a, b)
}
