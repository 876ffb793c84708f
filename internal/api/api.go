// CLAUDE:SUMMARY Core API struct and shared HTTP handlers — auth, user listing, health, JSON helpers
package api

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	extaudit "github.com/hazyhaar/pkg/audit"

	"github.com/hazyhaar/grievd/internal/auth"
	"github.com/hazyhaar/grievd/internal/chatbot"
	"github.com/hazyhaar/grievd/internal/classify"
	"github.com/hazyhaar/grievd/internal/db"
	"github.com/hazyhaar/grievd/internal/llm"
	mailer "github.com/hazyhaar/grievd/internal/mail"
	"github.com/hazyhaar/grievd/internal/pipeline"
	"github.com/hazyhaar/grievd/internal/similarity"
)

// maxBodySize caps JSON request bodies; uploads get their own limit.
const maxBodySize = 200 * 1024 // 200KB

// maxUploadSize caps multipart complaint submissions (image included).
const maxUploadSize = 10 << 20 // 10MB

// ChatRateLimiter covers POST /api/chat (20 req/60s per IP).
var ChatRateLimiter = NewRateLimiter(20, 60*time.Second)

type API struct {
	db         *db.DB
	auth       *auth.Auth
	classifier *classify.Client
	pipe       *pipeline.Pipeline
	engine     *similarity.Engine
	llmClient  *llm.Client
	tools      *chatbot.Executor
	mailer     *mailer.Sender
	auditLog   extaudit.Logger
	uploadsDir string
	geminiKey  string
}

func New(database *db.DB, a *auth.Auth) *API {
	return &API{
		db:     database,
		auth:   a,
		engine: similarity.NewEngine(similarity.DefaultParams()),
		tools:  chatbot.NewExecutor(database),
	}
}

// SetClassifier sets the ML classification client used on submission.
func (a *API) SetClassifier(c *classify.Client) {
	a.classifier = c
}

// SetPipeline sets the aggregation/reclassification pipeline.
func (a *API) SetPipeline(p *pipeline.Pipeline) {
	a.pipe = p
}

// SetLLMClient sets the LLM client for the chat assistant.
func (a *API) SetLLMClient(c *llm.Client) {
	a.llmClient = c
}

// SetMailer sets the SMTP sender for admin reply emails.
func (a *API) SetMailer(m *mailer.Sender) {
	a.mailer = m
}

// SetAuditLogger sets the audit trail for admin actions.
func (a *API) SetAuditLogger(l extaudit.Logger) {
	a.auditLog = l
}

// SetUploadsDir sets where complaint images are stored.
func (a *API) SetUploadsDir(dir string) {
	a.uploadsDir = dir
}

// SetGeminiKey sets the key checked by the chat test endpoint.
func (a *API) SetGeminiKey(key string) {
	a.geminiKey = key
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /api/auth/signup", a.handleSignup)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("GET /api/auth/me", a.handleMe)

	// Users
	mux.HandleFunc("GET /api/users", a.handleListUsers)

	// Complaints
	mux.HandleFunc("POST /api/complaints", a.handleCreateComplaint)
	mux.HandleFunc("GET /api/complaints", a.handleMyComplaints)
	mux.HandleFunc("GET /api/complaints/all", a.handleAllComplaints)
	mux.HandleFunc("GET /api/complaints/grouped/category", a.handleGroupedByCategory)
	mux.HandleFunc("POST /api/complaints/reclassify", a.handleReclassify)
	mux.HandleFunc("PUT /api/complaints/{id}/status", a.handleUpdateStatus)
	mux.HandleFunc("PUT /api/complaints/{id}/correction", a.handleCorrection)
	mux.HandleFunc("DELETE /api/complaints/{id}", a.handleDeleteComplaint)
	mux.HandleFunc("GET /api/complaints/duplicates/{id}", a.handleFindSimilar)
	mux.HandleFunc("GET /api/complaints/similar/{id}", a.handleFindSimilar)
	mux.HandleFunc("POST /api/complaints/reply", a.handleReply)

	// Notifications
	mux.HandleFunc("GET /api/notifications", a.handleListNotifications)
	mux.HandleFunc("PUT /api/notifications/read-all", a.handleMarkAllRead)
	mux.HandleFunc("PUT /api/notifications/{id}/read", a.handleMarkRead)

	// Chat assistant
	mux.HandleFunc("POST /api/chat", RateLimitMiddleware(ChatRateLimiter, a.handleChat))
	mux.HandleFunc("GET /api/chat/test", a.handleChatTest)

	// Health
	mux.HandleFunc("GET /api/health", a.handleHealth)
}

// requireUser extracts and validates the bearer token. Writes a 401 and
// returns nil when absent or invalid.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) *auth.Claims {
	claims := a.auth.ExtractClaims(r)
	if claims == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return nil
	}
	return claims
}

// requireAdmin is requireUser plus a role check (403 for non-admins).
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) *auth.Claims {
	claims := a.requireUser(w, r)
	if claims == nil {
		return nil
	}
	if !claims.IsAdmin() {
		jsonError(w, "admin access required", http.StatusForbidden)
		return nil
	}
	return claims
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		District string `json:"district"`
		Address  string `json:"address"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		jsonError(w, "name, email and password are required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		jsonError(w, "invalid email format", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		jsonError(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	if existing, _, err := a.db.GetUserByEmail(req.Email); err == nil && existing != nil {
		jsonError(w, "user already exists", http.StatusBadRequest)
		return
	}

	hash, err := a.auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	user, err := a.db.CreateUser(db.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		District:     req.District,
		Address:      req.Address,
		PasswordHash: hash,
	})
	if err != nil {
		jsonError(w, "could not create user", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, passwordHash, err := a.db.GetUserByEmail(req.Email)
	if err != nil {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !a.auth.CheckPassword(passwordHash, req.Password) {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := a.auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"role":  user.Role,
		"user":  user,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := a.requireUser(w, r)
	if claims == nil {
		return
	}
	user, err := a.db.GetUserByID(claims.UserID)
	if err != nil {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}
	jsonResp(w, http.StatusOK, user)
}

// handleListUsers returns all accounts with contact fields overridden by
// whatever the user last entered on a complaint form.
func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if a.requireAdmin(w, r) == nil {
		return
	}
	users, err := a.db.ListUsers()
	if err != nil {
		jsonError(w, "could not list users", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, users)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

func jsonResp(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
