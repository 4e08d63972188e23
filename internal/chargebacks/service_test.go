package chargebacks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
)

func newTestService(t *testing.T, repo *fakeRepository, ob *fakeOutbox) Service {
	t.Helper()
	if ob == nil {
		ob = &fakeOutbox{}
	}
	svc, err := NewService(repo, &fakeTxRunner{}, ob, logger.New(logger.Options{ServiceName: "chargebacks-test"}))
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestRecordDefaultsToFullPayable(t *testing.T) {
	creatorID := uuid.New()
	transaction := &models.Transaction{
		ID:                   uuid.New(),
		CreatorID:            creatorID,
		CreatorPayableAmount: 8500,
		Status:               enums.TransactionSucceeded,
	}
	repo := &fakeRepository{transaction: transaction}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, ob)

	chargeback, err := svc.Record(context.Background(), RecordInput{
		TransactionID: transaction.ID,
		Reason:        "card dispute",
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if chargeback.Amount != 8500 {
		t.Fatalf("expected full payable amount, got %d", chargeback.Amount)
	}
	if chargeback.CreatorID != creatorID {
		t.Fatalf("unexpected creator id")
	}
	if !repo.marked {
		t.Fatalf("transaction status not flipped")
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("chargeback row not inserted")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventChargebackRecorded {
		t.Fatalf("expected chargeback event, got %+v", ob.events)
	}
}

func TestRecordRejectsExcessAmount(t *testing.T) {
	transaction := &models.Transaction{
		ID:                   uuid.New(),
		CreatorID:            uuid.New(),
		CreatorPayableAmount: 5000,
		Status:               enums.TransactionSucceeded,
	}
	repo := &fakeRepository{transaction: transaction}
	svc := newTestService(t, repo, nil)

	if _, err := svc.Record(context.Background(), RecordInput{
		TransactionID: transaction.ID,
		Amount:        6000,
	}); err == nil {
		t.Fatalf("expected error for amount above payable")
	}
	if repo.marked {
		t.Fatalf("transaction must not be flipped on validation failure")
	}
}

func TestRecordRejectsAlreadyChargedBack(t *testing.T) {
	transaction := &models.Transaction{
		ID:     uuid.New(),
		Status: enums.TransactionChargeback,
	}
	repo := &fakeRepository{transaction: transaction}
	svc := newTestService(t, repo, nil)

	if _, err := svc.Record(context.Background(), RecordInput{
		TransactionID: transaction.ID,
	}); err == nil {
		t.Fatalf("expected error for repeated chargeback")
	}
}

func TestRecordUnknownTransaction(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, nil)

	if _, err := svc.Record(context.Background(), RecordInput{
		TransactionID: uuid.New(),
	}); err == nil {
		t.Fatalf("expected error for unknown transaction")
	}
}

func TestRecordConcurrentFlipLoses(t *testing.T) {
	transaction := &models.Transaction{
		ID:                   uuid.New(),
		CreatorPayableAmount: 1000,
		Status:               enums.TransactionSucceeded,
	}
	repo := &fakeRepository{transaction: transaction, markFails: true}
	svc := newTestService(t, repo, nil)

	if _, err := svc.Record(context.Background(), RecordInput{
		TransactionID: transaction.ID,
	}); err == nil {
		t.Fatalf("expected error when conditional status update affects no rows")
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("no chargeback row may be written after a lost flip")
	}
}

type fakeRepository struct {
	transaction *models.Transaction
	inserted    []models.Chargeback
	marked      bool
	markFails   bool
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	if f.transaction != nil && f.transaction.ID == transactionID {
		return f.transaction, nil
	}
	return nil, nil
}

func (f *fakeRepository) MarkTransactionChargeback(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	if f.markFails {
		return false, nil
	}
	f.marked = true
	return true, nil
}

func (f *fakeRepository) Insert(ctx context.Context, chargeback *models.Chargeback) error {
	f.inserted = append(f.inserted, *chargeback)
	return nil
}

func (f *fakeRepository) ListPending(ctx context.Context) ([]models.Chargeback, error) {
	return f.inserted, nil
}

func (f *fakeRepository) Aggregate(ctx context.Context) (Stats, error) {
	return Stats{}, nil
}

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
