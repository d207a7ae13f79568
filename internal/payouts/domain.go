// Package payouts persists franchise payout records and drives the payout
// notification flow.
package payouts

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus is the lifecycle state of a payout record.
type PayoutStatus string

const (
	StatusProcessed PayoutStatus = "processed"
)

// ProcessRequest is the payout submission payload. The fee-accounting fields
// echo the commission split the admin saw when approving the payout; they are
// stored verbatim so the ledger can reproduce the invoice later.
type ProcessRequest struct {
	FranchiseID         int64           `json:"franchiseId" validate:"required,gt=0"`
	Amount              decimal.Decimal `json:"amount" validate:"required"`
	RevenueReported     decimal.Decimal `json:"revenueReported" validate:"required"`
	OrdersCount         int64           `json:"ordersCount" validate:"gte=0"`
	SharePercentage     decimal.Decimal `json:"sharePercentage"`
	PlatformFeePerOrder decimal.Decimal `json:"platformFeePerOrder"`
	TotalFeeDeducted    decimal.Decimal `json:"totalFeeDeducted"`
	InvoiceBase64       string          `json:"invoice" validate:"omitempty,base64"`
	ActorID             int64           `json:"-"`
}

// Record is one persisted payout.
type Record struct {
	ID                  string          `json:"id"`
	FranchiseID         int64           `json:"franchiseId"`
	Amount              decimal.Decimal `json:"amount"`
	RevenueReported     decimal.Decimal `json:"revenueReported"`
	OrdersCount         int64           `json:"ordersCount"`
	SharePercentage     decimal.Decimal `json:"sharePercentage"`
	PlatformFeePerOrder decimal.Decimal `json:"platformFeePerOrder"`
	TotalFeeDeducted    decimal.Decimal `json:"totalFeeDeducted"`
	Status              PayoutStatus    `json:"status"`
	PayoutDate          time.Time       `json:"payoutDate"`
	EmailSent           bool            `json:"emailSent"`
	FranchiseName       string          `json:"franchiseName,omitempty"`
	City                string          `json:"city,omitempty"`
}

// Recipient is an approved franchise eligible for payouts, with the banking
// fields the finance team needs to execute a transfer.
type Recipient struct {
	FranchiseID   int64  `json:"franchiseId"`
	Name          string `json:"name"`
	City          string `json:"city"`
	Email         string `json:"email"`
	ZoneID        int64  `json:"zoneId"`
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	IFSCCode      string `json:"ifscCode,omitempty"`
}

// Contact is the notification target looked up at process time.
type Contact struct {
	Name  string
	Email string
}
