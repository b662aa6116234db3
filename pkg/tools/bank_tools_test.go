package tools

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harunnryd/teller/pkg/bank"
	"github.com/harunnryd/teller/pkg/errorsx"
	"github.com/harunnryd/teller/pkg/store"
)

func newBankRegistry(t *testing.T) (*Registry, *store.CSVUserStore) {
	t.Helper()
	dir := t.TempDir()
	users := store.NewCSVUserStore(filepath.Join(dir, "bank_users.csv"))
	loans := store.NewCSVLoanStore(filepath.Join(dir, "approved_loans.csv"))
	deposits := store.NewCSVDepositStore(filepath.Join(dir, "fixed_deposits.csv"))
	svc := bank.NewService(users, loans, deposits, nil)
	return NewBankRegistry(svc), users
}

func TestBalanceTool(t *testing.T) {
	reg, users := newBankRegistry(t)
	if err := users.Create(store.User{AccountNumber: "1234567890", Name: "Asha", Balance: "15000"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := reg.HandleTool(ToolGetBalance, map[string]any{"account_number": "1234567890"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("result not json: %v", err)
	}
	if payload["balance"] != "15000" {
		t.Fatalf("balance = %q", payload["balance"])
	}
}

func TestBalanceToolUnknownAccountReturnsSentinel(t *testing.T) {
	reg, _ := newBankRegistry(t)
	out, err := reg.HandleTool(ToolGetBalance, map[string]any{"account_number": "9999999999"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(out, bank.MsgAccountNotFound) {
		t.Fatalf("expected sentinel in %q", out)
	}
}

func TestEMIToolWeaklyTypedArguments(t *testing.T) {
	reg, _ := newBankRegistry(t)
	// Numbers arrive as strings from some models.
	out, err := reg.HandleTool(ToolCalculateLoanEMI, map[string]any{
		"principal": "500000",
		"years":     5.0,
		"loan_type": "home",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	var quote bank.Quote
	if err := json.Unmarshal([]byte(out), &quote); err != nil {
		t.Fatalf("result not json: %v", err)
	}
	if quote.EMI < 9947 || quote.EMI > 9948 {
		t.Fatalf("EMI = %v", quote.EMI)
	}
}

func TestEMIToolUnknownTypeIsErrorValue(t *testing.T) {
	reg, _ := newBankRegistry(t)
	out, err := reg.HandleTool(ToolCalculateLoanEMI, map[string]any{
		"principal": 1000.0,
		"years":     1.0,
		"loan_type": "yacht",
	})
	if err != nil {
		t.Fatalf("unknown type must be an error value, not a dispatch failure: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("result not json: %v", err)
	}
	if payload["error"] == "" {
		t.Fatalf("expected error field in %q", out)
	}
}

func TestEMIToolMalformedArguments(t *testing.T) {
	reg, _ := newBankRegistry(t)
	_, err := reg.HandleTool(ToolCalculateLoanEMI, map[string]any{
		"principal": map[string]any{"nested": true},
	})
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if !errorsx.HasReason(err, errorsx.ReasonToolArgs) {
		t.Fatalf("expected tool_args reason, got %v", err)
	}
}

func TestUpdateProfileToolWritesKnownColumns(t *testing.T) {
	reg, users := newBankRegistry(t)
	if err := users.Create(store.User{AccountNumber: "1234567890", Name: "Asha"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := reg.HandleTool(ToolUpdateProfile, map[string]any{
		"account_number": "1234567890",
		"monthly_salary": 90000.0,
		"branch":         "North",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(out, `"updated":true`) {
		t.Fatalf("unexpected result %q", out)
	}
	got, _, err := users.Get("1234567890")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MonthlySalary != "90000" || got.Branch != "North" {
		t.Fatalf("profile not updated: %+v", got)
	}
}

func TestProfileToolAnonymous(t *testing.T) {
	reg, _ := newBankRegistry(t)
	out, err := reg.HandleTool(ToolGetUserProfile, nil)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if out != "{}" {
		t.Fatalf("anonymous profile must be empty, got %q", out)
	}
}
