package email

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// Message is a single outbound email with a plain text body and an HTML
// alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one message. Implementations do not retry; wrap them in a
// RetryingSender for that.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const (
	CodeLength      = 6
	VerifySubject   = "Verify your email address"
	DefaultFromAddr = `"Todo Chat App" <verification@todochat.com>`
)

// GenerateCode returns a 6-digit numeric code (100000–999999).
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// VerificationMessage builds the email carrying a verification code.
func VerificationMessage(to, code string) Message {
	text := fmt.Sprintf("Your verification code is: %s. This code will expire in 30 minutes.", code)
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3498db;">Todo Chat App - Email Verification</h2>
  <p>Thanks for signing up! Please verify your email address to complete your registration.</p>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0; text-align: center;">
    <h3 style="margin: 0; font-size: 24px;">%s</h3>
  </div>
  <p>This verification code will expire in 30 minutes.</p>
  <p>If you didn't create an account, you can safely ignore this email.</p>
</div>`, code)

	return Message{To: to, Subject: VerifySubject, Text: text, HTML: html}
}

// TestMessage is what `todochat send-test-email` delivers.
func TestMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "Test Email from Todo Chat App",
		Text:    "This is a test email from the Todo Chat application.",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3498db;">Todo Chat App - Test Email</h2>
  <p>This is a test email from the Todo Chat application.</p>
  <p>If you received this, the email configuration is working correctly!</p>
</div>`,
	}
}
