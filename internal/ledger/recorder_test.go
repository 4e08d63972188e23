package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestRecorder(t *testing.T, repo *fakeRepository, sink *fakeOutbox, resolver *fakeResolver) Recorder {
	t.Helper()
	rec, err := NewRecorder(repo, &fakeTxRunner{}, sink, resolver, logger.New(logger.Options{ServiceName: "ledger-test"}))
	if err != nil {
		t.Fatalf("unexpected recorder error: %v", err)
	}
	return rec
}

func TestRecordTransactionSplitsFeeByTier(t *testing.T) {
	standard := uuid.New()
	vip := uuid.New()
	repo := &fakeRepository{creators: map[uuid.UUID]*models.Creator{
		standard: {ID: standard, Tier: enums.TierStandard},
		vip:      {ID: vip, Tier: enums.TierVIP},
	}}
	sink := &fakeOutbox{}
	rec := newTestRecorder(t, repo, sink, &fakeResolver{holdDays: 7, standardFeeBps: 1000, vipFeeBps: 700})

	transaction, err := rec.RecordTransaction(context.Background(), RecordTransactionInput{
		CreatorID:   standard,
		ProductType: enums.ProductSubscription,
		GrossAmount: 10000,
	})
	if err != nil {
		t.Fatalf("RecordTransaction error: %v", err)
	}
	if transaction.PlatformFeeAmount != 1000 || transaction.CreatorPayableAmount != 9000 {
		t.Fatalf("unexpected standard split: %+v", transaction)
	}
	if transaction.GrossAmount != transaction.PlatformFeeAmount+transaction.CreatorPayableAmount {
		t.Fatalf("gross must equal fee plus payable")
	}
	if transaction.FeeBps != 1000 {
		t.Fatalf("fee bps must be frozen on the row, got %d", transaction.FeeBps)
	}
	if transaction.Status != enums.TransactionSucceeded {
		t.Fatalf("unexpected status %s", transaction.Status)
	}

	vipTransaction, err := rec.RecordTransaction(context.Background(), RecordTransactionInput{
		CreatorID:   vip,
		ProductType: enums.ProductDonation,
		GrossAmount: 10000,
	})
	if err != nil {
		t.Fatalf("RecordTransaction error: %v", err)
	}
	if vipTransaction.PlatformFeeAmount != 700 || vipTransaction.FeeBps != 700 {
		t.Fatalf("unexpected vip split: %+v", vipTransaction)
	}
}

func TestRecordTransactionEmitsEvent(t *testing.T) {
	creatorID := uuid.New()
	repo := &fakeRepository{creators: map[uuid.UUID]*models.Creator{
		creatorID: {ID: creatorID, Tier: enums.TierStandard},
	}}
	sink := &fakeOutbox{}
	rec := newTestRecorder(t, repo, sink, &fakeResolver{standardFeeBps: 1000})

	occurred := time.Now().UTC().Add(-48 * time.Hour)
	transaction, err := rec.RecordTransaction(context.Background(), RecordTransactionInput{
		CreatorID:   creatorID,
		ProductType: enums.ProductPurchase,
		GrossAmount: 2500,
		OccurredAt:  occurred,
	})
	if err != nil {
		t.Fatalf("RecordTransaction error: %v", err)
	}
	if !transaction.OccurredAt.Equal(occurred) {
		t.Fatalf("occurred_at must be preserved")
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.EventType != enums.EventTransactionRecorded || event.AggregateType != enums.AggregateTransaction {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.AggregateID != transaction.ID {
		t.Fatalf("event must reference the inserted transaction")
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	repo := &fakeRepository{creators: map[uuid.UUID]*models.Creator{}}
	rec := newTestRecorder(t, repo, &fakeOutbox{}, &fakeResolver{standardFeeBps: 1000})

	cases := []struct {
		name  string
		input RecordTransactionInput
	}{
		{"missing creator", RecordTransactionInput{ProductType: enums.ProductDonation, GrossAmount: 100}},
		{"invalid product type", RecordTransactionInput{CreatorID: uuid.New(), ProductType: "unknown", GrossAmount: 100}},
		{"zero gross", RecordTransactionInput{CreatorID: uuid.New(), ProductType: enums.ProductDonation}},
		{"unknown creator", RecordTransactionInput{CreatorID: uuid.New(), ProductType: enums.ProductDonation, GrossAmount: 100}},
	}
	for _, tc := range cases {
		if _, err := rec.RecordTransaction(context.Background(), tc.input); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("no transaction may be written on validation failure")
	}
}
