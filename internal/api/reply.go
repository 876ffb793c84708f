// CLAUDE:SUMMARY Admin email reply endpoint — validated recipient, optional attachment, audited
package api

import (
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"

	sender "github.com/hazyhaar/grievd/internal/mail"
)

// handleReply sends an email answer for a complaint from the configured
// relay address. Multipart so the admin can attach a file.
func (a *API) handleReply(w http.ResponseWriter, r *http.Request) {
	claims := a.requireAdmin(w, r)
	if claims == nil {
		return
	}
	if a.mailer == nil || !a.mailer.Configured() {
		jsonError(w, "mail relay not configured", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "invalid form data", http.StatusBadRequest)
		return
	}

	to := strings.TrimSpace(r.FormValue("to"))
	message := r.FormValue("message")
	complaintCode := strings.TrimSpace(r.FormValue("complaintId"))
	if to == "" || message == "" || complaintCode == "" {
		jsonError(w, "missing required fields", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(to); err != nil {
		jsonError(w, "invalid email format", http.StatusBadRequest)
		return
	}

	msg := sender.Message{
		To:      to,
		Subject: fmt.Sprintf("Reply to your complaint (%s)", complaintCode),
		Text:    message,
		HTML:    sender.ReplyHTML(complaintCode, message),
	}

	if file, header, err := r.FormFile("attachment"); err == nil {
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			jsonError(w, "could not read attachment", http.StatusBadRequest)
			return
		}
		msg.Attachment = &sender.Attachment{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		}
	}

	err := a.mailer.Send(msg)
	a.audit(claims, "reply_email", map[string]interface{}{"to": to, "complaintId": complaintCode}, err)
	if err != nil {
		jsonError(w, "failed to send email", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Reply email sent successfully.",
	})
}
