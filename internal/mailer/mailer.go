// Package mailer sends payout notification email. Delivery is best effort:
// callers log failures and move on, so Send must never be load-bearing.
package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// Attachment is a file carried inline with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const mimeBoundary = "kada-payout-boundary"

// buildRawMessage assembles a multipart/mixed MIME message. SES raw sending
// needs the full message including headers.
func buildRawMessage(from string, msg Message) []byte {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mimeBoundary))
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n")

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		b.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
		b.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType))
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
		b.WriteString("\r\n")
		b.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(att.Data)))
		b.WriteString("\r\n")
	}

	b.WriteString(fmt.Sprintf("--%s--\r\n", mimeBoundary))
	return []byte(b.String())
}

// wrapBase64 folds encoded content to the 76-column line limit of RFC 2045.
func wrapBase64(encoded string) string {
	const lineLen = 76
	var b strings.Builder
	for len(encoded) > lineLen {
		b.WriteString(encoded[:lineLen])
		b.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	b.WriteString(encoded)
	return b.String()
}

// PayoutInvoiceBody renders the payout notification HTML, including the
// revenue and order summary the payout was computed from.
func PayoutInvoiceBody(franchiseName, amount, revenueReported string, ordersCount int64, payoutDate string) string {
	name := strings.TrimSpace(franchiseName)
	if name == "" {
		name = "Partner"
	}
	var b strings.Builder
	b.WriteString(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">`)
	b.WriteString(`<h2 style="color:#1a1a2e">Kada Payout Processed</h2>`)
	b.WriteString(fmt.Sprintf(`<p>Dear %s,</p>`, name))
	b.WriteString(fmt.Sprintf(`<p>Your payout of <strong>&#8377;%s</strong> was processed on %s.</p>`, amount, payoutDate))
	b.WriteString(`<p><strong>Summary:</strong></p><ul>`)
	b.WriteString(fmt.Sprintf(`<li>Revenue Reported: &#8377;%s</li>`, revenueReported))
	b.WriteString(fmt.Sprintf(`<li>Orders Processed: %d</li>`, ordersCount))
	b.WriteString(fmt.Sprintf(`<li>Net Payout: &#8377;%s</li>`, amount))
	b.WriteString(`</ul>`)
	b.WriteString(`<p>The invoice is attached to this email for your records.</p>`)
	b.WriteString(`<p style="color:#666;font-size:12px">This is an automated message from the Kada partner portal.</p>`)
	b.WriteString(`</div>`)
	return b.String()
}
