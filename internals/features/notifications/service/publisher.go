package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const billingEventChannel = "billing.events"

// Publisher mengirim event billing (invoice dibuat, payment masuk) ke
// redis pub/sub untuk sistem notifikasi downstream (reminder, dsb).
// Delivery & templating urusan luar; kewajiban core hanya event yang
// stabil dan idempoten (idempotency_key deterministik per kejadian).
type Publisher struct {
	client *redis.Client
}

// NewPublisher membuat publisher; addr kosong berarti notifikasi mati
// (publisher nil) — core tetap jalan tanpa redis.
func NewPublisher(addr, password string) *Publisher {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis tidak terjangkau (%v) — event billing dinonaktifkan", err)
		return nil
	}
	log.Println("✅ Redis connection established")
	return &Publisher{client: client}
}

type billingEvent struct {
	Event          string    `json:"event"`
	IdempotencyKey string    `json:"idempotency_key"`
	BranchID       uuid.UUID `json:"branch_id"`
	InvoiceID      uuid.UUID `json:"invoice_id"`
	StudentID      uuid.UUID `json:"student_id,omitempty"`
	PaymentID      uuid.UUID `json:"payment_id,omitempty"`
	Period         string    `json:"period,omitempty"`
	Status         string    `json:"status,omitempty"`
	At             time.Time `json:"at"`
}

func (p *Publisher) publish(ctx context.Context, ev billingEvent) {
	if p == nil || p.client == nil {
		return
	}
	ev.At = time.Now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.client.Publish(ctx, billingEventChannel, payload).Err(); err != nil {
		// best-effort: event gagal tidak boleh menggagalkan operasi billing
		log.Printf("publish billing event err: %v", err)
	}
}

// InvoiceCreated: "invoice X dibuat untuk periode Y".
func (p *Publisher) InvoiceCreated(ctx context.Context, branchID, invoiceID, studentID uuid.UUID, period string) {
	p.publish(ctx, billingEvent{
		Event:          "invoice.created",
		IdempotencyKey: "invoice.created:" + invoiceID.String() + ":" + period,
		BranchID:       branchID,
		InvoiceID:      invoiceID,
		StudentID:      studentID,
		Period:         period,
	})
}

// PaymentApplied: payment berhasil direkonsiliasi ke satu invoice.
func (p *Publisher) PaymentApplied(ctx context.Context, branchID, invoiceID, paymentID uuid.UUID, status string) {
	p.publish(ctx, billingEvent{
		Event:          "payment.applied",
		IdempotencyKey: "payment.applied:" + paymentID.String() + ":" + invoiceID.String(),
		BranchID:       branchID,
		InvoiceID:      invoiceID,
		PaymentID:      paymentID,
		Status:         status,
	})
}
