// Package email sends transactional mail through the Resend API.
//
// Services depend on the Sender interface only; main wires the Resend
// implementation when RESEND_API_KEY is set and leaves it nil otherwise.
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// Sender is the mail capability services need.
type Sender interface {
	// SendPasswordReset mails a reset link carrying the plaintext token.
	SendPasswordReset(ctx context.Context, toEmail, token string) error
	// SendVerificationResult tells a user their identity check was decided.
	SendVerificationResult(ctx context.Context, toEmail string, approved bool, note string) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds a Sender on a Resend client.
// fromEmail must belong to a domain verified in Resend.
func NewResendSender(apiKey, fromEmail, appURL string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)

	body := layout("Password Reset Request", fmt.Sprintf(`
      <p style="color:#94a3b8;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
        We received a request to reset your password. Use the button below to choose a new one.
      </p>
      %s
      <p style="color:#64748b;font-size:13px;line-height:1.6;margin:0;">
        This link expires in 20 minutes. If you did not ask for a reset, ignore this email.
      </p>`, button(link, "Reset Password")))

	return s.send(ctx, toEmail, "Reset your AdBond password", body)
}

func (s *resendSender) SendVerificationResult(ctx context.Context, toEmail string, approved bool, note string) error {
	title := "Your identity has been verified"
	text := "Your verification request was approved. Your profile now shows the verified badge."
	if !approved {
		title = "Your verification request was rejected"
		text = "Your verification request was reviewed and could not be approved."
	}

	noteHTML := ""
	if note != "" {
		noteHTML = fmt.Sprintf(`<p style="color:#94a3b8;font-size:14px;margin:0 0 24px 0;">Reviewer note: %s</p>`,
			html.EscapeString(note))
	}

	body := layout(title, fmt.Sprintf(`
      <p style="color:#94a3b8;font-size:15px;line-height:1.6;margin:0 0 16px 0;">%s</p>
      %s
      %s`, text, noteHTML, button(s.appURL+"/verification", "Open AdBond")))

	return s.send(ctx, toEmail, title, body)
}

func (s *resendSender) send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("AdBond <%s>", s.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send %q email: %w", subject, err)
	}
	return nil
}

func button(href, label string) string {
	return fmt.Sprintf(`
      <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
        <tr>
          <td style="background-color:#0ea5e9;border-radius:6px;padding:12px 32px;">
            <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">%s</a>
          </td>
        </tr>
      </table>`, href, label)
}

func layout(heading, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#0f172a;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#0f172a;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#1e293b;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#e2e8f0;font-size:24px;margin:0 0 8px 0;">AdBond</h1>
              <h2 style="color:#e2e8f0;font-size:18px;margin:0 0 24px 0;">%s</h2>
              %s
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, html.EscapeString(heading), content)
}
