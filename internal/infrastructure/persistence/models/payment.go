package models

import (
	"time"

	"github.com/boutique/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// The gateway client secret is never stored.
type PaymentModel struct {
	VersionedRow
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method        string          `gorm:"type:varchar(20);not null;index"`
	Origin        string          `gorm:"type:varchar(20);not null;default:'CUSTOMER'"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;index"`
	GatewayRef    *string         `gorm:"type:varchar(255);uniqueIndex"`
	ProofKey      string          `gorm:"type:varchar(500)"`
	ProofURL      string          `gorm:"column:proof_url;type:varchar(1000)"`
	AdminNotes    string          `gorm:"type:text"`
	FailureReason string          `gorm:"type:varchar(500)"`
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		BaseAggregateRoot: m.aggregate(),
		OrderID:           m.OrderID,
		Method:            payment.Method(m.Method),
		Origin:            payment.Origin(m.Origin),
		Amount:            m.Amount,
		Status:            payment.Status(m.Status),
		GatewayRef:        derefString(m.GatewayRef),
		ProofKey:          m.ProofKey,
		ProofURL:          m.ProofURL,
		AdminNotes:        m.AdminNotes,
		FailureReason:     m.FailureReason,
		CompletedAt:       m.CompletedAt,
	}
}

// PaymentModelFromDomain converts a domain Payment
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{
		OrderID:       p.OrderID,
		Method:        string(p.Method),
		Origin:        string(p.Origin),
		Amount:        p.Amount,
		Status:        string(p.Status),
		GatewayRef:    nullableString(p.GatewayRef),
		ProofKey:      p.ProofKey,
		ProofURL:      p.ProofURL,
		AdminNotes:    p.AdminNotes,
		FailureReason: p.FailureReason,
		CompletedAt:   p.CompletedAt,
	}
	m.setAggregate(p.BaseAggregateRoot)
	return m
}
