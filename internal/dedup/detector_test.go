package dedup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/scanreview/reconciler/internal/entity"
)

type fakeHistory struct {
	recs []*entity.Receipt
	err  error
}

func (f *fakeHistory) ListOtherReceipts(_ context.Context, _, exclude uuid.UUID) ([]*entity.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.Receipt
	for _, r := range f.recs {
		if r.ID != exclude {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeStores struct {
	stores []*entity.StoreIdentity
	err    error
}

func (f *fakeStores) ResolveStores(_ context.Context, fragment string) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []uuid.UUID
	for _, s := range f.stores {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(fragment)) {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

type DetectorTestSuite struct {
	suite.Suite
	userID       uuid.UUID
	newReceiptID uuid.UUID
	carrefour    *entity.StoreIdentity
	history      *fakeHistory
	stores       *fakeStores
}

func TestDetectorSuite(t *testing.T) {
	suite.Run(t, new(DetectorTestSuite))
}

func (s *DetectorTestSuite) SetupTest() {
	s.userID = uuid.New()
	s.newReceiptID = uuid.New()
	s.carrefour = &entity.StoreIdentity{ID: uuid.New(), Name: "CARREFOUR CITY"}
	s.history = &fakeHistory{}
	s.stores = &fakeStores{stores: []*entity.StoreIdentity{s.carrefour}}
}

func (s *DetectorTestSuite) detector() *Detector {
	return NewDetector(s.history, s.stores, nil)
}

func (s *DetectorTestSuite) receipt(store *uuid.UUID, date *time.Time, total string, filename string, uploadedAt time.Time) *entity.Receipt {
	rec := &entity.Receipt{
		ID:             uuid.New(),
		UserID:         s.userID,
		StoreID:        store,
		PurchaseDate:   date,
		SourceFilename: filename,
		UploadedAt:     uploadedAt,
	}
	if total != "" {
		d, err := decimal.NewFromString(total)
		s.Require().NoError(err)
		rec.Total = &d
	}
	return rec
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (s *DetectorTestSuite) TestFieldMatchWithinTolerances() {
	existing := s.receipt(&s.carrefour.ID, datePtr(2024, 3, 11), "12.90", "old.jpg", time.Now())
	s.history.recs = []*entity.Receipt{existing}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		StoreName:    "Carrefour",
		PurchaseDate: "2024-03-10",
		TotalAmount:  "12.47",
	})
	s.Require().NoError(err)
	s.True(decision.IsDuplicate)
	s.Equal(BasisFields, decision.Basis)
	s.Require().NotNil(decision.MatchedReceiptID)
	s.Equal(existing.ID, *decision.MatchedReceiptID)
	s.False(decision.Advisory)
}

func (s *DetectorTestSuite) TestAmountOutsideToleranceNoOtherFields() {
	existing := s.receipt(nil, nil, "20.00", "", time.Now())
	s.history.recs = []*entity.Receipt{existing}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		StoreName:    "Carrefour",
		PurchaseDate: "2024-03-10",
		TotalAmount:  "12.47",
	})
	s.Require().NoError(err)
	s.False(decision.IsDuplicate)
	s.Equal(BasisNone, decision.Basis)
}

func (s *DetectorTestSuite) TestCommaDecimalSeparator() {
	existing := s.receipt(nil, nil, "12.90", "", time.Now())
	s.history.recs = []*entity.Receipt{existing}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		TotalAmount: "12,47",
	})
	s.Require().NoError(err)
	s.True(decision.IsDuplicate)
	s.Equal(BasisFields, decision.Basis)
}

func (s *DetectorTestSuite) TestDateWindowIsInclusive() {
	within := s.receipt(nil, datePtr(2024, 3, 11), "", "", time.Now())
	s.history.recs = []*entity.Receipt{within}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		PurchaseDate: "2024-03-10",
	})
	s.Require().NoError(err)
	s.True(decision.IsDuplicate)

	s.history.recs = []*entity.Receipt{s.receipt(nil, datePtr(2024, 3, 12), "", "", time.Now())}
	decision, err = s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		PurchaseDate: "2024-03-10",
	})
	s.Require().NoError(err)
	s.False(decision.IsDuplicate, "two days apart is outside the window")
}

func (s *DetectorTestSuite) TestCandidateMissingFieldFailsThatTest() {
	// amount matches but the fingerprint's date test cannot pass on a
	// candidate without a stored date
	existing := s.receipt(nil, nil, "12.47", "", time.Now())
	s.history.recs = []*entity.Receipt{existing}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		PurchaseDate: "2024-03-10",
		TotalAmount:  "12.47",
	})
	s.Require().NoError(err)
	s.False(decision.IsDuplicate)
}

func (s *DetectorTestSuite) TestStoreResolutionBySubstring() {
	other := &entity.StoreIdentity{ID: uuid.New(), Name: "MONOPRIX"}
	s.stores.stores = append(s.stores.stores, other)
	existing := s.receipt(&other.ID, nil, "", "", time.Now())
	s.history.recs = []*entity.Receipt{existing}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		StoreName: "Carrefour",
	})
	s.Require().NoError(err)
	s.False(decision.IsDuplicate, "candidate belongs to a different store identity")

	decision, err = s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		StoreName: "monoprix",
	})
	s.Require().NoError(err)
	s.True(decision.IsDuplicate)
	s.Equal(BasisFields, decision.Basis)
}

func (s *DetectorTestSuite) TestFilenameFallback() {
	existing := s.receipt(nil, nil, "", "facture_monoprix_05.png", time.Now())
	s.history.recs = []*entity.Receipt{existing}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		SourceFilename: "ticket_monoprix_2024.jpg",
	})
	s.Require().NoError(err)
	s.True(decision.IsDuplicate)
	s.Equal(BasisFilename, decision.Basis)
	s.True(decision.Advisory, "filename evidence is lower-trust and needs confirmation")
	s.Require().NotNil(decision.MatchedReceiptID)
	s.Equal(existing.ID, *decision.MatchedReceiptID)
}

func (s *DetectorTestSuite) TestFilenameFallbackPicksMostRecent() {
	older := s.receipt(nil, nil, "", "monoprix_old.png", time.Now().Add(-48*time.Hour))
	newer := s.receipt(nil, nil, "", "monoprix_new.png", time.Now())
	s.history.recs = []*entity.Receipt{older, newer}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		SourceFilename: "scan_monoprix.jpg",
	})
	s.Require().NoError(err)
	s.True(decision.IsDuplicate)
	s.Equal(newer.ID, *decision.MatchedReceiptID)
}

func (s *DetectorTestSuite) TestFieldsBeatFilename() {
	fieldHit := s.receipt(nil, nil, "12.47", "unrelated.png", time.Now().Add(-time.Hour))
	nameHit := s.receipt(nil, nil, "", "ticket_monoprix.png", time.Now())
	s.history.recs = []*entity.Receipt{nameHit, fieldHit}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		TotalAmount:    "12.50",
		SourceFilename: "scan_monoprix.jpg",
	})
	s.Require().NoError(err)
	s.Equal(BasisFields, decision.Basis)
	s.Equal(fieldHit.ID, *decision.MatchedReceiptID)
}

func (s *DetectorTestSuite) TestNoUsableFields() {
	s.history.recs = []*entity.Receipt{s.receipt(nil, nil, "12.47", "x.png", time.Now())}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		TotalAmount:  "not a number",
		PurchaseDate: "someday",
	})
	s.Require().NoError(err)
	s.False(decision.IsDuplicate)
	s.Equal(BasisNone, decision.Basis)
}

func (s *DetectorTestSuite) TestHistoryErrorPropagates() {
	s.history.err = errors.New("connection refused")

	_, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		TotalAmount: "12.47",
	})
	s.Require().Error(err)
	s.ErrorContains(err, "connection refused")
}

func (s *DetectorTestSuite) TestResolverErrorPropagates() {
	s.stores.err = errors.New("catalog unavailable")

	_, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		StoreName: "Carrefour",
	})
	s.Require().Error(err)
	s.ErrorContains(err, "catalog unavailable")
}

func (s *DetectorTestSuite) TestExcludesReceiptUnderInspection() {
	self := s.receipt(nil, nil, "12.47", "", time.Now())
	self.ID = s.newReceiptID
	s.history.recs = []*entity.Receipt{self}

	decision, err := s.detector().Check(context.Background(), s.userID, s.newReceiptID, Fingerprint{
		TotalAmount: "12.47",
	})
	s.Require().NoError(err)
	s.False(decision.IsDuplicate, "a receipt never duplicates itself")
}
