package mailer

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSES struct {
	input *ses.SendRawEmailInput
	err   error
}

func (c *capturingSES) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	c.input = params
	if c.err != nil {
		return nil, c.err
	}
	return &ses.SendRawEmailOutput{}, nil
}

func TestSendBuildsMultipartMessage(t *testing.T) {
	api := &capturingSES{}
	sender := &SESSender{client: api, from: "payouts@thekada.in"}

	invoice := []byte("%PDF-1.4 fake invoice")
	err := sender.Send(context.Background(), Message{
		To:       "partner@example.com",
		Subject:  "Payout Processed",
		HTMLBody: PayoutInvoiceBody("Kochi Partners LLP", "430.00", "1000.00", 12, "2026-08-31"),
		Attachments: []Attachment{
			{Filename: "invoice.pdf", ContentType: "application/pdf", Data: invoice},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, api.input)

	raw := string(api.input.RawMessage.Data)
	assert.Contains(t, raw, "From: payouts@thekada.in\r\n")
	assert.Contains(t, raw, "To: partner@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/mixed")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, raw, "Kochi Partners LLP")
	assert.Contains(t, raw, `Content-Disposition: attachment; filename="invoice.pdf"`)
	assert.Contains(t, raw, base64.StdEncoding.EncodeToString(invoice))
	assert.True(t, strings.HasSuffix(raw, "--"+mimeBoundary+"--\r\n"))
}

func TestSendWrapsClientError(t *testing.T) {
	api := &capturingSES{err: assert.AnError}
	sender := &SESSender{client: api, from: "payouts@thekada.in"}

	err := sender.Send(context.Background(), Message{To: "partner@example.com"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPayoutInvoiceBodyFallsBackToGenericGreeting(t *testing.T) {
	body := PayoutInvoiceBody("   ", "100.00", "250.00", 3, "2026-08-31")
	assert.Contains(t, body, "Dear Partner,")
}

func TestPayoutInvoiceBodySummarizesRevenueAndOrders(t *testing.T) {
	body := PayoutInvoiceBody("Kochi Partners LLP", "430.00", "1000.00", 12, "2026-08-31")
	assert.Contains(t, body, "Revenue Reported: &#8377;1000.00")
	assert.Contains(t, body, "Orders Processed: 12")
	assert.Contains(t, body, "Net Payout: &#8377;430.00")
}

func TestWrapBase64FoldsLongLines(t *testing.T) {
	encoded := strings.Repeat("A", 200)
	wrapped := wrapBase64(encoded)
	for _, line := range strings.Split(wrapped, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}
