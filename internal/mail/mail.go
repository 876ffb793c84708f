// CLAUDE:SUMMARY SMTP sender for admin reply emails (multipart text+html, optional attachment)
// Package mail sends complaint reply emails over SMTP.
package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/hazyhaar/grievd/internal/config"
)

// Attachment is a file included with an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single outgoing email.
type Message struct {
	To         string
	Subject    string
	Text       string
	HTML       string
	Attachment *Attachment
}

// Sender delivers messages through a configured SMTP relay.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// Configured reports whether the relay has credentials to send with.
func (s *Sender) Configured() bool {
	return s.host != "" && s.from != ""
}

// Send builds a MIME message and submits it over SMTP with PLAIN auth.
func (s *Sender) Send(msg Message) error {
	if !s.Configured() {
		return fmt.Errorf("mail: SMTP relay not configured")
	}

	body, contentType, err := encodeBody(msg)
	if err != nil {
		return fmt.Errorf("mail: encoding message: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
	buf.WriteString("\r\n")
	buf.Write(body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{msg.To}, buf.Bytes()); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", msg.To, err)
	}
	return nil
}

// encodeBody renders the message as multipart/alternative, wrapped in
// multipart/mixed when an attachment is present.
func encodeBody(msg Message) (body []byte, contentType string, err error) {
	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)

	if msg.Text != "" {
		part, err := altWriter.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/plain; charset=utf-8"},
		})
		if err != nil {
			return nil, "", err
		}
		fmt.Fprint(part, msg.Text)
	}
	if msg.HTML != "" {
		part, err := altWriter.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/html; charset=utf-8"},
		})
		if err != nil {
			return nil, "", err
		}
		fmt.Fprint(part, msg.HTML)
	}
	if err := altWriter.Close(); err != nil {
		return nil, "", err
	}
	altType := fmt.Sprintf("multipart/alternative; boundary=%q", altWriter.Boundary())

	if msg.Attachment == nil {
		return alt.Bytes(), altType, nil
	}

	var mixed bytes.Buffer
	mixedWriter := multipart.NewWriter(&mixed)

	part, err := mixedWriter.CreatePart(textproto.MIMEHeader{
		"Content-Type": {altType},
	})
	if err != nil {
		return nil, "", err
	}
	part.Write(alt.Bytes())

	att := msg.Attachment
	ct := att.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	part, err = mixedWriter.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {ct},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
	})
	if err != nil {
		return nil, "", err
	}
	encoded := base64.StdEncoding.EncodeToString(att.Content)
	for len(encoded) > 0 {
		n := 76
		if len(encoded) < n {
			n = len(encoded)
		}
		fmt.Fprintf(part, "%s\r\n", encoded[:n])
		encoded = encoded[n:]
	}
	if err := mixedWriter.Close(); err != nil {
		return nil, "", err
	}
	return mixed.Bytes(), fmt.Sprintf("multipart/mixed; boundary=%q", mixedWriter.Boundary()), nil
}

// ReplyHTML renders the styled reply body used by the admin reply endpoint.
func ReplyHTML(complaintCode, message string) string {
	escaped := strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb;">GrievAssist - Complaint Reply</h2>
  <p><strong>Complaint ID:</strong> %s</p>
  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 0; line-height: 1.6;">%s</p>
  </div>
  <p style="color: #6b7280; font-size: 14px;">
    This is an automated reply from GrievAssist. Please do not reply to this email.
  </p>
</div>`, complaintCode, escaped)
}
