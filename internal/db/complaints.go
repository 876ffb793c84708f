// CLAUDE:SUMMARY Complaint store — CRUD, candidate scans for duplicate detection, reclassify batches, chatbot queries
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Complaint struct {
	ID               string     `json:"id"`
	ComplaintCode    string     `json:"complaintId"`
	UserID           string     `json:"userId"`
	Name             string     `json:"name"`
	Age              *int       `json:"age,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email"`
	Address          string     `json:"address,omitempty"`
	District         string     `json:"district"`
	Description      string     `json:"description"`
	Suggestions      string     `json:"suggestions,omitempty"`
	Image            string     `json:"image,omitempty"`
	Lat              *float64   `json:"lat,omitempty"`
	Lng              *float64   `json:"lng,omitempty"`
	Status           string     `json:"status"`
	Category         string     `json:"category"`
	Priority         string     `json:"priority"`
	ModelConfidence  *float64   `json:"modelConfidence,omitempty"`
	AnomalyScore     *float64   `json:"anomalyScore,omitempty"`
	ClassifierSource *string    `json:"classifierSource,omitempty"`
	HumanCorrection  *string    `json:"humanCorrection,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	Submitter        *Submitter `json:"user,omitempty"`
}

// Submitter is the expanded identity of the account behind a complaint.
type Submitter struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	District string `json:"district,omitempty"`
}

// EffectiveCategory resolves the admin override ahead of the model label.
func (c *Complaint) EffectiveCategory() string {
	if c.HumanCorrection != nil && *c.HumanCorrection != "" {
		return *c.HumanCorrection
	}
	if c.Category != "" {
		return c.Category
	}
	return "unassigned"
}

type CreateComplaintInput struct {
	UserID      string
	Name        string
	Age         *int
	Phone       string
	Email       string
	Address     string
	District    string
	Description string
	Suggestions string
	Image       string
	Lat         *float64
	Lng         *float64

	Category         string
	Priority         string
	ModelConfidence  *float64
	AnomalyScore     *float64
	ClassifierSource string
}

func (db *DB) CreateComplaint(input CreateComplaintInput) (*Complaint, error) {
	id := NewID()

	category := input.Category
	if category == "" {
		category = "unassigned"
	}
	priority := input.Priority
	if priority == "" {
		priority = "low"
	}

	var code string
	var err error
	// Complaint codes are short; retry on the rare collision.
	for attempt := 0; attempt < 5; attempt++ {
		code = NewComplaintCode()
		_, err = db.Exec(`
			INSERT INTO complaints (id, complaint_code, user_id, name, age, phone, email,
				address, district, description, suggestions, image, lat, lng,
				category, priority, model_confidence, anomaly_score, classifier_source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, code, input.UserID, input.Name, input.Age, input.Phone, input.Email,
			input.Address, input.District, input.Description, input.Suggestions,
			input.Image, input.Lat, input.Lng,
			category, priority, input.ModelConfidence, input.AnomalyScore,
			nullIfEmpty(input.ClassifierSource))
		if err == nil || !strings.Contains(err.Error(), "UNIQUE") {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("creating complaint: %w", err)
	}
	return db.GetComplaint(id)
}

const complaintColumns = `id, complaint_code, user_id, name, age, phone, email,
	address, district, description, suggestions, image, lat, lng, status,
	category, priority, model_confidence, anomaly_score, classifier_source,
	human_correction, created_at`

func (db *DB) GetComplaint(id string) (*Complaint, error) {
	row := db.QueryRow(`SELECT `+complaintColumns+` FROM complaints WHERE id = ?`, id)
	return scanComplaint(row)
}

// GetComplaintByCode looks a complaint up by its public code, matching
// case-insensitively on substring so partial codes from chat still resolve.
func (db *DB) GetComplaintByCode(code string) (*Complaint, error) {
	row := db.QueryRow(`SELECT `+complaintColumns+` FROM complaints
		WHERE UPPER(complaint_code) LIKE '%' || UPPER(?) || '%'
		ORDER BY created_at DESC LIMIT 1`, code)
	return scanComplaint(row)
}

// ListComplaintsForUser returns complaints owned by the account, either by
// user reference or by matching the complaint-embedded email.
func (db *DB) ListComplaintsForUser(userID, email string) ([]*Complaint, error) {
	rows, err := db.Query(`SELECT `+complaintColumns+` FROM complaints
		WHERE user_id = ? OR email = ? ORDER BY created_at DESC`, userID, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

// ListAllComplaints returns every complaint with submitter identity expanded.
func (db *DB) ListAllComplaints() ([]*Complaint, error) {
	rows, err := db.Query(`
		SELECT c.id, c.complaint_code, c.user_id, c.name, c.age, c.phone, c.email,
			c.address, c.district, c.description, c.suggestions, c.image, c.lat, c.lng,
			c.status, c.category, c.priority, c.model_confidence, c.anomaly_score,
			c.classifier_source, c.human_correction, c.created_at,
			u.name, u.email, u.phone, u.district
		FROM complaints c
		LEFT JOIN users u ON u.id = c.user_id
		ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaintsWithSubmitter(rows)
}

// SimilarityCandidates returns the duplicate-detection candidate pool for a
// target complaint: everything except the target itself and anything already
// resolved, in creation order so tie-breaking stays deterministic.
func (db *DB) SimilarityCandidates(excludeID string) ([]*Complaint, error) {
	rows, err := db.Query(`
		SELECT c.id, c.complaint_code, c.user_id, c.name, c.age, c.phone, c.email,
			c.address, c.district, c.description, c.suggestions, c.image, c.lat, c.lng,
			c.status, c.category, c.priority, c.model_confidence, c.anomaly_score,
			c.classifier_source, c.human_correction, c.created_at,
			u.name, u.email, u.phone, u.district
		FROM complaints c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.id != ? AND c.status != 'resolved'
		ORDER BY c.created_at`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaintsWithSubmitter(rows)
}

func (db *DB) UpdateStatus(id, status string) (*Complaint, error) {
	res, err := db.Exec(`UPDATE complaints SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, sql.ErrNoRows
	}
	return db.GetComplaint(id)
}

// SetHumanCorrection records an admin category override. Empty clears it.
func (db *DB) SetHumanCorrection(id, category string) (*Complaint, error) {
	res, err := db.Exec(`UPDATE complaints SET human_correction = ? WHERE id = ?`,
		nullIfEmpty(category), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, sql.ErrNoRows
	}
	return db.GetComplaint(id)
}

// UpdateClassification persists a fresh model labelling for a complaint.
func (db *DB) UpdateClassification(id, category, priority string, confidence, anomaly *float64, source string) error {
	_, err := db.Exec(`
		UPDATE complaints
		SET category = ?, priority = ?, model_confidence = ?, anomaly_score = ?, classifier_source = ?
		WHERE id = ?`,
		category, priority, confidence, anomaly, nullIfEmpty(source), id)
	return err
}

func (db *DB) DeleteComplaint(id string) (*Complaint, error) {
	c, err := db.GetComplaint(id)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`DELETE FROM notifications WHERE complaint_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`DELETE FROM complaints WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return c, nil
}

// ReclassifyBatch selects complaints needing (re)labelling: category missing
// or unassigned, or priority missing. When onlyUnassigned is false the whole
// collection qualifies. Capped to bound the fan-out to the classifier.
func (db *DB) ReclassifyBatch(onlyUnassigned bool, limit int) ([]*Complaint, error) {
	if limit <= 0 {
		limit = 2000
	}
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	if onlyUnassigned {
		query += ` WHERE category IS NULL OR category = '' OR category = 'unassigned'
			OR priority IS NULL OR priority = ''`
	}
	query += ` ORDER BY created_at LIMIT ?`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

// StatusCounts mirrors the lifecycle buckets the chatbot reports on.
type StatusCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

func (db *DB) CountByStatus() (*StatusCounts, error) {
	counts := &StatusCounts{}
	err := db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'resolved' THEN 1 ELSE 0 END), 0)
		FROM complaints`).Scan(
		&counts.Total, &counts.Pending, &counts.InProgress, &counts.Resolved)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryHistogram returns model-label counts, busiest first. limit <= 0
// returns all categories.
func (db *DB) CategoryHistogram(limit int) ([]CategoryCount, error) {
	query := `SELECT COALESCE(NULLIF(human_correction, ''), NULLIF(category, ''), 'unassigned') AS cat,
		COUNT(*) FROM complaints GROUP BY cat ORDER BY COUNT(*) DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// SearchComplaints matches keyword as a case-insensitive substring of the
// description.
func (db *DB) SearchComplaints(keyword string, limit int) ([]*Complaint, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := db.Query(`SELECT `+complaintColumns+` FROM complaints
		WHERE description LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY created_at DESC LIMIT ?`, keyword, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

// ListRecentByUser returns the user's newest complaints, most recent first.
func (db *DB) ListRecentByUser(userID string, limit int) ([]*Complaint, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`SELECT `+complaintColumns+` FROM complaints
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComplaint(row rowScanner) (*Complaint, error) {
	c := &Complaint{}
	var age sql.NullInt64
	var lat, lng, confidence, anomaly sql.NullFloat64
	var source, correction sql.NullString
	err := row.Scan(&c.ID, &c.ComplaintCode, &c.UserID, &c.Name, &age, &c.Phone,
		&c.Email, &c.Address, &c.District, &c.Description, &c.Suggestions,
		&c.Image, &lat, &lng, &c.Status, &c.Category, &c.Priority,
		&confidence, &anomaly, &source, &correction, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	applyNullables(c, age, lat, lng, confidence, anomaly, source, correction)
	return c, nil
}

func scanComplaints(rows *sql.Rows) ([]*Complaint, error) {
	var out []*Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComplaintsWithSubmitter(rows *sql.Rows) ([]*Complaint, error) {
	var out []*Complaint
	for rows.Next() {
		c := &Complaint{}
		var age sql.NullInt64
		var lat, lng, confidence, anomaly sql.NullFloat64
		var source, correction sql.NullString
		var uName, uEmail, uPhone, uDistrict sql.NullString
		err := rows.Scan(&c.ID, &c.ComplaintCode, &c.UserID, &c.Name, &age, &c.Phone,
			&c.Email, &c.Address, &c.District, &c.Description, &c.Suggestions,
			&c.Image, &lat, &lng, &c.Status, &c.Category, &c.Priority,
			&confidence, &anomaly, &source, &correction, &c.CreatedAt,
			&uName, &uEmail, &uPhone, &uDistrict)
		if err != nil {
			return nil, err
		}
		applyNullables(c, age, lat, lng, confidence, anomaly, source, correction)
		if uEmail.Valid {
			c.Submitter = &Submitter{
				Name:     uName.String,
				Email:    uEmail.String,
				Phone:    uPhone.String,
				District: uDistrict.String,
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func applyNullables(c *Complaint, age sql.NullInt64, lat, lng, confidence, anomaly sql.NullFloat64, source, correction sql.NullString) {
	if age.Valid {
		v := int(age.Int64)
		c.Age = &v
	}
	if lat.Valid {
		c.Lat = &lat.Float64
	}
	if lng.Valid {
		c.Lng = &lng.Float64
	}
	if confidence.Valid {
		c.ModelConfidence = &confidence.Float64
	}
	if anomaly.Valid {
		c.AnomalyScore = &anomaly.Float64
	}
	if source.Valid {
		c.ClassifierSource = &source.String
	}
	if correction.Valid {
		c.HumanCorrection = &correction.String
	}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
