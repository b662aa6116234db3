package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/teller/pkg/agent"
	"github.com/harunnryd/teller/pkg/metrics"
	"github.com/harunnryd/teller/pkg/redact"
	"github.com/harunnryd/teller/pkg/store"
)

type registerRequest struct {
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	CreditScore   string `json:"credit_score"`
	Balance       string `json:"balance"`
	AccountType   string `json:"account_type"`
	Branch        string `json:"branch"`
	IFSC          string `json:"ifsc"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	MonthlySalary string `json:"monthly_salary"`
}

type chatRequest struct {
	AccountNumber string       `json:"account_number"`
	Message       string       `json:"message"`
	History       []agent.Turn `json:"history"`
}

type chatResponse struct {
	Reply   string       `json:"reply"`
	History []agent.Turn `json:"history"`
	TraceID string       `json:"trace_id"`
}

func (t *Transport) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := t.svc.RegisterUser(store.User{
		AccountNumber: req.AccountNumber,
		Name:          req.Name,
		CreditScore:   req.CreditScore,
		Balance:       req.Balance,
		AccountType:   req.AccountType,
		Branch:        req.Branch,
		IFSC:          req.IFSC,
		Phone:         req.Phone,
		Email:         req.Email,
		MonthlySalary: req.MonthlySalary,
	})
	switch {
	case errors.Is(err, store.ErrDuplicateAccount):
		writeError(w, http.StatusConflict, "account number already exists")
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		t.logger.Info("user_registered", "account_number", redact.Account(req.AccountNumber))
		writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
	}
}

func (t *Transport) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req struct {
		AccountNumber string `json:"account_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, found, err := t.svc.Profile(req.AccountNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	t.logger.Info("user_login", "account_number", redact.Account(user.AccountNumber))
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"name":     user.Name,
		"greeting": greetingFor(user),
	})
}

func (t *Transport) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		user, ok := t.lookupAccount(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, profileBody(user))
	case http.MethodPost, http.MethodPut:
		t.handleProfileUpdate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET, POST or PUT required")
	}
}

// handleProfileUpdate writes the submitted fields and echoes the
// reloaded record, mirroring the edit-and-refresh flow of the web form.
func (t *Transport) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	acc := req["account_number"]
	if acc == "" {
		writeError(w, http.StatusBadRequest, "account_number is required")
		return
	}
	delete(req, "account_number")
	found, err := t.svc.UpdateProfile(acc, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	user, _, err := t.svc.Profile(acc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	t.logger.Info("profile_updated", "account_number", redact.Account(acc), "fields", len(req))
	writeJSON(w, http.StatusOK, profileBody(user))
}

func profileBody(user store.User) map[string]string {
	return map[string]string{
		"account_number": user.AccountNumber,
		"name":           user.Name,
		"credit_score":   user.CreditScore,
		"balance":        user.Balance,
		"account_type":   user.AccountType,
		"branch":         user.Branch,
		"ifsc":           user.IFSC,
		"phone":          user.Phone,
		"email":          user.Email,
		"monthly_salary": user.MonthlySalary,
	}
}

func (t *Transport) handleLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := t.lookupAccount(w, r)
	if !ok {
		return
	}
	loans, err := t.svc.LoanHistory(user.AccountNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loan lookup failed")
		return
	}
	out := make([]map[string]string, 0, len(loans))
	for _, l := range loans {
		out = append(out, map[string]string{
			"loan_type":      l.LoanType,
			"loan_amount":    l.LoanAmount,
			"duration_years": l.DurationYears,
			"approved_emi":   l.ApprovedEMI,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"loans": out})
}

func (t *Transport) handleDeposits(w http.ResponseWriter, r *http.Request) {
	user, ok := t.lookupAccount(w, r)
	if !ok {
		return
	}
	deposits, err := t.svc.Deposits(user.AccountNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "deposit lookup failed")
		return
	}
	out := make([]map[string]string, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, map[string]string{
			"amount":          d.Amount,
			"years":           d.Years,
			"maturity_amount": d.MaturityAmount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"deposits": out})
}

func (t *Transport) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if t.draining.Load() {
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	var user store.User
	if req.AccountNumber != "" {
		found := false
		var err error
		user, found, err = t.svc.Profile(req.AccountNumber)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "profile lookup failed")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
	}

	traceID := uuid.NewString()
	reply := t.respond(r.Context(), traceID, req.Message, req.History, user)
	history := append(req.History,
		agent.Turn{Role: agent.RoleUser, Content: req.Message},
		agent.Turn{Role: agent.RoleAssistant, Content: reply},
	)
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, History: history, TraceID: traceID})
}

type wsClientMessage struct {
	Message string `json:"message"`
}

type wsServerMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	TraceID string `json:"trace_id,omitempty"`
}

func (t *Transport) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if t.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	var user store.User
	if acc := r.URL.Query().Get("account_number"); acc != "" {
		found, err := false, error(nil)
		user, found, err = t.svc.Profile(acc)
		if err != nil || !found {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
	}
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sessionID := uuid.NewString()
	sess := &session{conn: conn}
	t.attach(sessionID, sess)
	defer t.detach(sessionID)

	t.logger.Info("chat_session_start", "session_id", sessionID,
		"account_number", redact.Account(user.AccountNumber))

	if !user.IsZero() {
		_ = conn.WriteJSON(wsServerMessage{Type: "greeting", Text: greetingFor(user)})
	}

	var history []agent.Turn
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg wsClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Bare text frames are accepted too.
			msg.Message = string(raw)
		}
		if msg.Message == "" {
			continue
		}
		traceID := uuid.NewString()
		reply := t.respond(context.Background(), traceID, msg.Message, history, user)
		history = append(history,
			agent.Turn{Role: agent.RoleUser, Content: msg.Message},
			agent.Turn{Role: agent.RoleAssistant, Content: reply},
		)
		if err := conn.WriteJSON(wsServerMessage{Type: "reply", Text: reply, TraceID: traceID}); err != nil {
			break
		}
	}
	t.logger.Info("chat_session_end", "session_id", sessionID, "turns", len(history)/2)
}

// respond runs one turn under the configured timeout. The responder
// already maps failures to customer-safe text, so errors are only
// logged here.
func (t *Transport) respond(ctx context.Context, traceID, message string, history []agent.Turn, user store.User) string {
	ctx, cancel := context.WithTimeout(ctx, t.turnTimeout)
	defer cancel()

	start := time.Now()
	reply, err := t.responder.Respond(ctx, message, history, user)
	t.obs.RecordEvent(metrics.MetricsEvent{
		Name:  metrics.EventChatTurn,
		Time:  time.Now(),
		Value: float64(time.Since(start).Milliseconds()),
		Tags:  map[string]string{"transport": t.Name()},
	})
	if err != nil {
		t.logger.Error("chat_turn_failed", "trace_id", traceID, "error", err,
			"account_number", redact.Account(user.AccountNumber))
	}
	return reply
}

func (t *Transport) lookupAccount(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return store.User{}, false
	}
	acc := r.URL.Query().Get("account_number")
	if acc == "" {
		writeError(w, http.StatusBadRequest, "account_number is required")
		return store.User{}, false
	}
	user, found, err := t.svc.Profile(acc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile lookup failed")
		return store.User{}, false
	}
	if !found {
		writeError(w, http.StatusNotFound, "account not found")
		return store.User{}, false
	}
	return user, true
}

func greetingFor(user store.User) string {
	name := user.Name
	if name == "" || name == store.DataNotAvailable {
		return "Welcome back! How can I help you today?"
	}
	return "Welcome back, " + name + "! How can I help you today?"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
