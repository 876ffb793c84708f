// CLAUDE:SUMMARY Complaint HTTP handlers — submission with image upload and auto-classification, listings, admin triage operations
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	extaudit "github.com/hazyhaar/pkg/audit"

	"github.com/hazyhaar/grievd/internal/auth"
	"github.com/hazyhaar/grievd/internal/db"
)

var validStatuses = []string{"pending", "in progress", "resolved"}

func (a *API) handleCreateComplaint(w http.ResponseWriter, r *http.Request) {
	claims := a.requireUser(w, r)
	if claims == nil {
		return
	}

	input, err := a.decodeComplaintForm(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.UserID = claims.UserID
	if input.Email == "" {
		input.Email = claims.Email
	}
	if input.District == "" || input.Description == "" {
		jsonError(w, "district and description are required", http.StatusBadRequest)
		return
	}

	res := a.classifier.Classify(r.Context(), input.Description)
	input.Category = res.Category
	input.Priority = res.Priority
	input.ModelConfidence = res.Confidence
	input.AnomalyScore = res.AnomalyScore
	input.ClassifierSource = string(res.Source)

	complaint, err := a.db.CreateComplaint(*input)
	if err != nil {
		slog.Error("storing complaint", "err", err)
		jsonError(w, "error submitting complaint", http.StatusInternalServerError)
		return
	}

	// Notification side effect; losing it never fails the submission.
	if _, err := a.db.CreateNotification(db.CreateNotificationInput{
		Type:        "new_complaint",
		Title:       "New Complaint Submitted",
		Message:     fmt.Sprintf("New complaint %s has been submitted and categorized as %q",
			complaint.ComplaintCode, complaint.EffectiveCategory()),
		ComplaintID: complaint.ID,
	}); err != nil {
		slog.Error("creating notification", "err", err, "complaint", complaint.ID)
	}

	jsonResp(w, http.StatusCreated, map[string]interface{}{
		"message":                 "Complaint submitted successfully!",
		"complaint":               complaint,
		"mlClassificationSuccess": res.FromModel(),
	})
}

// decodeComplaintForm accepts both multipart (with optional image) and
// plain JSON submissions.
func (a *API) decodeComplaintForm(w http.ResponseWriter, r *http.Request) (*db.CreateComplaintInput, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	input := &db.CreateComplaintInput{}

	if ct == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, fmt.Errorf("invalid form data")
		}
		input.Name = r.FormValue("name")
		input.Phone = r.FormValue("phone")
		input.Email = r.FormValue("email")
		input.Address = r.FormValue("address")
		input.District = r.FormValue("district")
		input.Description = r.FormValue("description")
		input.Suggestions = r.FormValue("suggestions")
		if v := r.FormValue("age"); v != "" {
			if age, err := strconv.Atoi(v); err == nil {
				input.Age = &age
			}
		}
		if v := r.FormValue("location"); v != "" {
			var loc struct {
				Lat *float64 `json:"lat"`
				Lng *float64 `json:"lng"`
			}
			// malformed location is dropped, not fatal
			if err := json.Unmarshal([]byte(v), &loc); err == nil {
				input.Lat = loc.Lat
				input.Lng = loc.Lng
			}
		}
		filename, err := a.saveUpload(r)
		if err != nil {
			return nil, err
		}
		input.Image = filename
		return input, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req struct {
		Name        string   `json:"name"`
		Age         *int     `json:"age"`
		Phone       string   `json:"phone"`
		Email       string   `json:"email"`
		Address     string   `json:"address"`
		District    string   `json:"district"`
		Description string   `json:"description"`
		Suggestions string   `json:"suggestions"`
		Location    *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	input.Name = req.Name
	input.Age = req.Age
	input.Phone = req.Phone
	input.Email = req.Email
	input.Address = req.Address
	input.District = req.District
	input.Description = req.Description
	input.Suggestions = req.Suggestions
	if req.Location != nil {
		input.Lat = req.Location.Lat
		input.Lng = req.Location.Lng
	}
	return input, nil
}

// saveUpload stores the "image" part under the uploads directory with a
// generated name. Returns "" when no file was sent.
func (a *API) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", fmt.Errorf("invalid image upload")
	}
	defer file.Close()

	if a.uploadsDir == "" {
		return "", fmt.Errorf("uploads not configured")
	}
	if err := os.MkdirAll(a.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("uploads not available")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		return "", fmt.Errorf("unsupported image type")
	}
	filename := db.NewID() + ext
	dst, err := os.Create(filepath.Join(a.uploadsDir, filename))
	if err != nil {
		return "", fmt.Errorf("could not store image")
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("could not store image")
	}
	return filename, nil
}

// handleMyComplaints lists the caller's complaints, matched on account ID
// or on the email they entered on the form.
func (a *API) handleMyComplaints(w http.ResponseWriter, r *http.Request) {
	claims := a.requireUser(w, r)
	if claims == nil {
		return
	}
	complaints, err := a.db.ListComplaintsForUser(claims.UserID, claims.Email)
	if err != nil {
		jsonError(w, "error fetching complaints", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, complaints)
}

func (a *API) handleAllComplaints(w http.ResponseWriter, r *http.Request) {
	if a.requireAdmin(w, r) == nil {
		return
	}
	complaints, err := a.db.ListAllComplaints()
	if err != nil {
		jsonError(w, "error fetching complaints", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, complaints)
}

func (a *API) handleGroupedByCategory(w http.ResponseWriter, r *http.Request) {
	if a.requireAdmin(w, r) == nil {
		return
	}
	groups, err := a.pipe.GroupByCategory()
	if err != nil {
		jsonError(w, "error grouping complaints", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, groups)
}

func (a *API) handleReclassify(w http.ResponseWriter, r *http.Request) {
	claims := a.requireAdmin(w, r)
	if claims == nil {
		return
	}
	req := struct {
		OnlyUnassigned bool `json:"onlyUnassigned"`
	}{OnlyUnassigned: true}
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := a.pipe.Reclassify(r.Context(), req.OnlyUnassigned)
	a.audit(claims, "reclassify", map[string]interface{}{"onlyUnassigned": req.OnlyUnassigned}, err)
	if err != nil {
		jsonError(w, "error during reclassification", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, map[string]interface{}{
		"message": "Reclassification complete",
		"total":   result.Total,
		"updated": result.Updated,
	})
}

func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := a.requireAdmin(w, r)
	if claims == nil {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !validStatus(req.Status) {
		jsonError(w, "status must be one of: "+strings.Join(validStatuses, ", "), http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	complaint, err := a.db.UpdateStatus(id, req.Status)
	a.audit(claims, "update_status", map[string]interface{}{"id": id, "status": req.Status}, err)
	if err != nil {
		jsonError(w, "complaint not found", http.StatusNotFound)
		return
	}

	if _, err := a.db.CreateNotification(db.CreateNotificationInput{
		Type:        "status_update",
		Title:       "Complaint Status Updated",
		Message:     fmt.Sprintf("Complaint %s is now %q", complaint.ComplaintCode, complaint.Status),
		ComplaintID: complaint.ID,
	}); err != nil {
		slog.Error("creating notification", "err", err, "complaint", complaint.ID)
	}

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"message":   "Status updated successfully",
		"complaint": complaint,
	})
}

// handleCorrection records an admin category override. The override wins
// over the model label everywhere the effective category is used.
func (a *API) handleCorrection(w http.ResponseWriter, r *http.Request) {
	claims := a.requireAdmin(w, r)
	if claims == nil {
		return
	}
	var req struct {
		Category string `json:"category"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		jsonError(w, "category is required", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	complaint, err := a.db.SetHumanCorrection(id, strings.TrimSpace(req.Category))
	a.audit(claims, "correct_category", map[string]interface{}{"id": id, "category": req.Category}, err)
	if err != nil {
		jsonError(w, "complaint not found", http.StatusNotFound)
		return
	}
	jsonResp(w, http.StatusOK, map[string]interface{}{
		"message":   "Category corrected",
		"complaint": complaint,
	})
}

func (a *API) handleDeleteComplaint(w http.ResponseWriter, r *http.Request) {
	claims := a.requireAdmin(w, r)
	if claims == nil {
		return
	}
	id := r.PathValue("id")
	complaint, err := a.db.DeleteComplaint(id)
	a.audit(claims, "delete_complaint", map[string]interface{}{"id": id}, err)
	if err != nil {
		jsonError(w, "complaint not found", http.StatusNotFound)
		return
	}
	jsonResp(w, http.StatusOK, map[string]interface{}{
		"message":   "Complaint deleted successfully",
		"complaint": complaint,
	})
}

// similarMatch is the wire shape for one duplicate candidate: the full
// complaint plus an integer percent score and how it qualified.
type similarMatch struct {
	*db.Complaint
	Similarity int    `json:"similarity"`
	MatchType  string `json:"matchType"`
}

func (a *API) handleFindSimilar(w http.ResponseWriter, r *http.Request) {
	if a.requireAdmin(w, r) == nil {
		return
	}
	id := r.PathValue("id")
	original, err := a.db.GetComplaint(id)
	if err != nil {
		jsonError(w, "complaint not found", http.StatusNotFound)
		return
	}
	candidates, err := a.db.SimilarityCandidates(id)
	if err != nil {
		jsonError(w, "error finding duplicates", http.StatusInternalServerError)
		return
	}

	result := a.engine.FindSimilar(original, candidates)
	duplicates := make([]similarMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		duplicates = append(duplicates, similarMatch{
			Complaint:  m.Complaint,
			Similarity: int(math.Round(m.Score * 100)),
			MatchType:  string(m.Type),
		})
	}
	jsonResp(w, http.StatusOK, map[string]interface{}{
		"original":   result.Original,
		"duplicates": duplicates,
		"totalFound": result.TotalFound,
	})
}

func validStatus(s string) bool {
	for _, v := range validStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// audit records an admin action on the audit trail, when configured.
func (a *API) audit(claims *auth.Claims, action string, params map[string]interface{}, err error) {
	if a.auditLog == nil {
		return
	}
	entry := &extaudit.Entry{
		Action:    action,
		Transport: "http",
		UserID:    claims.UserID,
	}
	if encoded, e := json.Marshal(params); e == nil {
		entry.Parameters = string(encoded)
	}
	if err != nil {
		entry.Error = err.Error()
		entry.Status = "error"
	}
	a.auditLog.LogAsync(entry)
}
