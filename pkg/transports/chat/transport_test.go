package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/harunnryd/teller/pkg/agent"
	"github.com/harunnryd/teller/pkg/bank"
	"github.com/harunnryd/teller/pkg/store"
)

// echoResponder replays the utterance plus the logged-in account, so
// tests can assert the session context reached the responder.
type echoResponder struct{}

func (echoResponder) Respond(ctx context.Context, utterance string, history []agent.Turn, user store.User) (string, error) {
	return fmt.Sprintf("echo[%s|%s|%d]", utterance, user.AccountNumber, len(history)), nil
}

func newTestTransport(t *testing.T) (*Transport, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	users := store.NewCSVUserStore(filepath.Join(dir, "bank_users.csv"))
	loans := store.NewCSVLoanStore(filepath.Join(dir, "approved_loans.csv"))
	deposits := store.NewCSVDepositStore(filepath.Join(dir, "fixed_deposits.csv"))
	svc := bank.NewService(users, loans, deposits, nil)
	if err := svc.RegisterUser(store.User{AccountNumber: "1234567890", Name: "Asha", Balance: "15000"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tr := New(Config{}, echoResponder{}, svc, nil, nil)
	srv := httptest.NewServer(tr.Handler())
	t.Cleanup(srv.Close)
	return tr, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestRegisterAndDuplicate(t *testing.T) {
	_, srv := newTestTransport(t)

	resp := postJSON(t, srv.URL+"/register", map[string]string{
		"account_number": "5555555555", "name": "Ravi",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/register", map[string]string{
		"account_number": "5555555555", "name": "Ravi",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterRejectsBadAccount(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/register", map[string]string{
		"account_number": "12345", "name": "Short",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginGreetsKnownUser(t *testing.T) {
	_, srv := newTestTransport(t)

	resp := postJSON(t, srv.URL+"/login", map[string]string{"account_number": "1234567890"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if !strings.Contains(body["greeting"], "Asha") {
		t.Fatalf("greeting = %q", body["greeting"])
	}

	resp = postJSON(t, srv.URL+"/login", map[string]string{"account_number": "9999999999"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown login status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProfileEndpoint(t *testing.T) {
	_, srv := newTestTransport(t)
	resp, err := http.Get(srv.URL + "/profile?account_number=1234567890")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["name"] != "Asha" || body["balance"] != "15000" {
		t.Fatalf("body = %+v", body)
	}
}

func TestProfileUpdateEndpoint(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/profile", map[string]string{
		"account_number": "1234567890",
		"phone":          "+91 99999 11111",
		"monthly_salary": "90000",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["phone"] != "+91 99999 11111" || body["monthly_salary"] != "90000" {
		t.Fatalf("update not reflected: %+v", body)
	}
	if body["name"] != "Asha" || body["balance"] != "15000" {
		t.Fatalf("untouched fields must survive: %+v", body)
	}

	// The write persists beyond the request.
	resp, err := http.Get(srv.URL + "/profile?account_number=1234567890")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	decodeBody(t, resp, &body)
	if body["monthly_salary"] != "90000" {
		t.Fatalf("update not persisted: %+v", body)
	}
}

func TestProfileUpdateUnknownAccount(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/profile", map[string]string{
		"account_number": "9999999999",
		"phone":          "123",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProfileUpdateRequiresAccount(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/profile", map[string]string{"phone": "123"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestChatCarriesSessionAccount(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/chat", chatRequest{
		AccountNumber: "1234567890",
		Message:       "balance please",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body chatResponse
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Reply, "1234567890") {
		t.Fatalf("session account did not reach responder: %q", body.Reply)
	}
	if len(body.History) != 2 || body.History[1].Role != agent.RoleAssistant {
		t.Fatalf("history = %+v", body.History)
	}
	if body.TraceID == "" {
		t.Fatalf("missing trace id")
	}
}

func TestChatAnonymous(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/chat", chatRequest{Message: "hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body chatResponse
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Reply, "echo[hello||0]") {
		t.Fatalf("reply = %q", body.Reply)
	}
}

func TestChatUnknownAccount(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/chat", chatRequest{AccountNumber: "9999999999", Message: "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestChatRequiresMessage(t *testing.T) {
	_, srv := newTestTransport(t)
	resp := postJSON(t, srv.URL+"/chat", chatRequest{AccountNumber: "1234567890"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestWebsocketGreetingAndReply(t *testing.T) {
	_, srv := newTestTransport(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?account_number=1234567890"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var greeting wsServerMessage
	if err := conn.ReadJSON(&greeting); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if greeting.Type != "greeting" || !strings.Contains(greeting.Text, "Asha") {
		t.Fatalf("greeting = %+v", greeting)
	}

	if err := conn.WriteJSON(wsClientMessage{Message: "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply wsServerMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != "reply" || !strings.Contains(reply.Text, "echo[hi|1234567890|0]") {
		t.Fatalf("reply = %+v", reply)
	}

	// Second turn sees the accumulated history.
	if err := conn.WriteJSON(wsClientMessage{Message: "again"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if !strings.Contains(reply.Text, "|2]") {
		t.Fatalf("history not carried: %+v", reply)
	}
}

func TestHealth(t *testing.T) {
	_, srv := newTestTransport(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestStopRefusesNewChats(t *testing.T) {
	tr, srv := newTestTransport(t)
	if err := tr.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	resp := postJSON(t, srv.URL+"/chat", chatRequest{Message: "hi"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}
