package tools

import (
	"encoding/json"
	"errors"

	"github.com/harunnryd/teller/pkg/bank"
	"github.com/harunnryd/teller/pkg/llm"
)

// Capability names as advertised to the reasoning service.
const (
	ToolGetUserProfile     = "get_user_profile"
	ToolGetBalance         = "get_balance"
	ToolGetLoanHistory     = "get_loan_history"
	ToolCalculateLoanEMI   = "calculate_loan_emi"
	ToolApproveLoan        = "approve_loan"
	ToolCreateFixedDeposit = "create_fixed_deposit"
	ToolGetFixedDeposits   = "get_fixed_deposits"
	ToolUpdateProfile      = "update_profile"
)

// NewBankRegistry binds the banking capabilities to their handlers.
func NewBankRegistry(svc *bank.Service) *Registry {
	reg := NewRegistry()

	accountProp := map[string]any{"type": "string", "description": "The user's 10-digit account number."}

	reg.MustRegister(llm.Tool{
		Name:        ToolGetUserProfile,
		Description: "Get the profile information for the currently logged-in user.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []string{},
		},
	}, profileHandler(svc))

	reg.MustRegister(llm.Tool{
		Name:        ToolGetBalance,
		Description: "Get the account balance for the currently logged-in user.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"account_number": accountProp},
			"required":   []string{"account_number"},
		},
	}, balanceHandler(svc))

	reg.MustRegister(llm.Tool{
		Name:        ToolGetLoanHistory,
		Description: "Get the loan history for the currently logged-in user.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"account_number": accountProp},
			"required":   []string{"account_number"},
		},
	}, loanHistoryHandler(svc))

	reg.MustRegister(llm.Tool{
		Name:        ToolCalculateLoanEMI,
		Description: "Calculate the monthly EMI and total interest for a loan.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"principal":      map[string]any{"type": "number", "description": "The principal loan amount."},
				"years":          map[string]any{"type": "number", "description": "The loan duration in years."},
				"loan_type":      map[string]any{"type": "string", "description": "Type of loan: personal, student, or home."},
				"monthly_salary": map[string]any{"type": "number", "description": "Monthly salary (only for personal loans).", "nullable": true},
			},
			"required": []string{"principal", "years", "loan_type", "monthly_salary"},
		},
	}, emiHandler())

	reg.MustRegister(llm.Tool{
		Name:        ToolApproveLoan,
		Description: "Approve a loan for the user based on type of loan, principal, years, and salary.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"account_number": accountProp,
				"loan_type":      map[string]any{"type": "string", "description": "Type of loan: personal, student, or home."},
				"principal":      map[string]any{"type": "number", "description": "The principal loan amount."},
				"years":          map[string]any{"type": "number", "description": "The loan duration in years."},
				"monthly_salary": map[string]any{"type": "number", "description": "Monthly salary (required for personal/home loans).", "nullable": true},
			},
			"required": []string{"account_number", "loan_type", "principal", "years", "monthly_salary"},
		},
	}, approveLoanHandler(svc))

	reg.MustRegister(llm.Tool{
		Name:        ToolCreateFixedDeposit,
		Description: "Create a fixed deposit for the user.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"account_number": accountProp,
				"amount":         map[string]any{"type": "number", "description": "The deposit amount."},
				"years":          map[string]any{"type": "number", "description": "The duration of the deposit in years."},
			},
			"required": []string{"account_number", "amount", "years"},
		},
	}, createDepositHandler(svc))

	reg.MustRegister(llm.Tool{
		Name:        ToolGetFixedDeposits,
		Description: "List the fixed deposits for the currently logged-in user.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"account_number": accountProp},
			"required":   []string{"account_number"},
		},
	}, listDepositsHandler(svc))

	reg.MustRegister(llm.Tool{
		Name:        ToolUpdateProfile,
		Description: "Update profile fields (name, phone, email, salary, etc.) for the currently logged-in user.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"account_number": accountProp,
				"name":           map[string]any{"type": "string", "nullable": true},
				"credit_score":   map[string]any{"type": "string", "nullable": true},
				"balance":        map[string]any{"type": "string", "nullable": true},
				"account_type":   map[string]any{"type": "string", "nullable": true},
				"branch":         map[string]any{"type": "string", "nullable": true},
				"ifsc":           map[string]any{"type": "string", "nullable": true},
				"phone":          map[string]any{"type": "string", "nullable": true},
				"email":          map[string]any{"type": "string", "nullable": true},
				"monthly_salary": map[string]any{"type": "string", "nullable": true},
			},
			"required": []string{"account_number"},
		},
	}, updateProfileHandler(svc))

	return reg
}

func profileHandler(svc *bank.Service) Handler {
	return func(args map[string]any) (string, error) {
		var in ProfileArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		if in.AccountNumber == "" {
			return "{}", nil
		}
		user, found, err := svc.Profile(in.AccountNumber)
		if err != nil {
			return "", err
		}
		if !found {
			return "{}", nil
		}
		return marshal(map[string]string{
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
		})
	}
}

func balanceHandler(svc *bank.Service) Handler {
	return func(args map[string]any) (string, error) {
		var in BalanceArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		balance, err := svc.Balance(in.AccountNumber)
		if err != nil {
			return "", err
		}
		return marshal(map[string]string{"balance": balance})
	}
}

func loanHistoryHandler(svc *bank.Service) Handler {
	return func(args map[string]any) (string, error) {
		var in LoanHistoryArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		loans, err := svc.LoanHistory(in.AccountNumber)
		if err != nil {
			return "", err
		}
		out := make([]map[string]string, 0, len(loans))
		for _, l := range loans {
			out = append(out, map[string]string{
				"account_number": l.AccountNumber,
				"name":           l.Name,
				"loan_type":      l.LoanType,
				"loan_amount":    l.LoanAmount,
				"duration_years": l.DurationYears,
				"monthly_salary": l.MonthlySalary,
				"approved_emi":   l.ApprovedEMI,
			})
		}
		return marshal(map[string]any{"loans": out})
	}
}

func emiHandler() Handler {
	return func(args map[string]any) (string, error) {
		var in EMIArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		quote, err := bank.QuoteLoan(in.Principal, in.Years, in.LoanType)
		if errors.Is(err, bank.ErrUnknownLoanType) {
			// An error value the model can relay, not a failed dispatch.
			return marshal(map[string]string{"error": err.Error()})
		}
		if err != nil {
			return "", err
		}
		return marshal(quote)
	}
}

func approveLoanHandler(svc *bank.Service) Handler {
	return func(args map[string]any) (string, error) {
		var in ApproveLoanArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		res, err := svc.ApproveLoan(in.AccountNumber, in.LoanType, in.Principal, in.Years, in.MonthlySalary)
		if err != nil {
			return "", err
		}
		return marshal(res)
	}
}

func createDepositHandler(svc *bank.Service) Handler {
	return func(args map[string]any) (string, error) {
		var in DepositArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		entry, err := svc.CreateFixedDeposit(in.AccountNumber, in.Amount, in.Years)
		if err != nil {
			return "", err
		}
		return marshal(entry)
	}
}

func listDepositsHandler(svc *bank.Service) Handler {
	return func(args map[string]any) (string, error) {
		var in BalanceArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		deposits, err := svc.Deposits(in.AccountNumber)
		if err != nil {
			return "", err
		}
		out := make([]map[string]string, 0, len(deposits))
		for _, d := range deposits {
			out = append(out, map[string]string{
				"account_number":  d.AccountNumber,
				"amount":          d.Amount,
				"years":           d.Years,
				"maturity_amount": d.MaturityAmount,
			})
		}
		return marshal(map[string]any{"deposits": out})
	}
}

func updateProfileHandler(svc *bank.Service) Handler {
	return func(args map[string]any) (string, error) {
		var in ProfileArgs
		if err := DecodeArgs(args, &in); err != nil {
			return "", err
		}
		fields := StringFields(args)
		delete(fields, "account_number")
		found, err := svc.UpdateProfile(in.AccountNumber, fields)
		if err != nil {
			return "", err
		}
		return marshal(map[string]any{"updated": found})
	}
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
