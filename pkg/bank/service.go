package bank

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/harunnryd/teller/pkg/errorsx"
	"github.com/harunnryd/teller/pkg/store"
)

// Customer-facing sentinels. Capabilities return these as values so the
// reasoning service can phrase them; they are never raised as errors.
const (
	MsgAccountNotFound     = "Account not found."
	MsgBalanceNotAvailable = "Balance not available. Please update your account information."
	MsgStudentReferral     = "For student loans, please contact our education loan department at 1800-123-456."
)

// Service implements the banking capabilities over the record stores.
type Service struct {
	users    store.UserStore
	loans    store.LoanStore
	deposits store.DepositStore
	logger   *slog.Logger
}

func NewService(users store.UserStore, loans store.LoanStore, deposits store.DepositStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, loans: loans, deposits: deposits, logger: logger}
}

// ApprovalResult is the structured outcome of an approval attempt.
type ApprovalResult struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	EMI     float64 `json:"emi,omitempty"`
}

const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusInfo     = "info"
	StatusError    = "error"
)

// Profile returns the stored record for an account.
func (s *Service) Profile(accountNumber string) (store.User, bool, error) {
	return s.users.Get(accountNumber)
}

// RegisterUser validates and creates a new profile. Missing optional
// fields are stored with the sentinel by the user store.
func (s *Service) RegisterUser(u store.User) error {
	if !store.ValidAccountNumber(u.AccountNumber) {
		return errorsx.Wrap(fmt.Errorf("account number must be a 10-digit number"), errorsx.ReasonConfig)
	}
	if strings.TrimSpace(u.Name) == "" {
		return errorsx.Wrap(fmt.Errorf("name is required"), errorsx.ReasonConfig)
	}
	return s.users.Create(u)
}

// Balance returns the stored balance or a descriptive sentinel.
func (s *Service) Balance(accountNumber string) (string, error) {
	user, found, err := s.users.Get(accountNumber)
	if err != nil {
		return "", err
	}
	if !found {
		return MsgAccountNotFound, nil
	}
	balance := strings.TrimSpace(user.Balance)
	if balance == "" || strings.EqualFold(balance, store.DataNotAvailable) {
		return MsgBalanceNotAvailable, nil
	}
	return balance, nil
}

// LoanHistory returns the account's loans, oldest first as stored.
func (s *Service) LoanHistory(accountNumber string) ([]store.Loan, error) {
	return s.loans.ListByAccount(accountNumber)
}

// Deposits returns the account's fixed deposits.
func (s *Service) Deposits(accountNumber string) ([]store.Deposit, error) {
	return s.deposits.ListByAccount(accountNumber)
}

// ApproveLoan re-derives the EMI with the type-keyed rate, applies the
// affordability rule and persists the record on success. Student loans
// short-circuit to a referral and never persist.
func (s *Service) ApproveLoan(accountNumber, loanType string, principal, years, monthlySalary float64) (ApprovalResult, error) {
	lt, ok := ParseLoanType(loanType)
	if !ok {
		return ApprovalResult{Status: StatusError, Message: ErrUnknownLoanType.Error()}, nil
	}
	if lt == LoanStudent {
		return ApprovalResult{Status: StatusInfo, Message: MsgStudentReferral}, nil
	}

	emi := MonthlyEMI(principal, years, annualRates[lt])
	if ceiling, capped := salaryCaps[lt]; capped && emi > ceiling*monthlySalary {
		return ApprovalResult{
			Status: StatusRejected,
			Message: fmt.Sprintf("Loan rejected: EMI %.2f exceeds %.0f%% of your monthly salary %.2f.",
				emi, ceiling*100, monthlySalary),
			EMI: Round2(emi),
		}, nil
	}

	user, found, err := s.users.Get(accountNumber)
	if err != nil {
		return ApprovalResult{}, err
	}
	if !found {
		return ApprovalResult{Status: StatusError, Message: MsgAccountNotFound}, nil
	}

	entry := store.Loan{
		AccountNumber: user.AccountNumber,
		Name:          user.Name,
		LoanType:      lt.Display(),
		LoanAmount:    formatAmount(principal),
		DurationYears: formatAmount(years),
		MonthlySalary: formatAmount(monthlySalary),
		ApprovedEMI:   strconv.FormatFloat(Round2(emi), 'f', 2, 64),
	}
	if err := s.loans.Append(entry); err != nil {
		s.logger.Error("loan_record_write_failed", "account", user.AccountNumber, "error", err)
		return ApprovalResult{}, err
	}
	s.logger.Info("loan_approved", "account", user.AccountNumber, "loan_type", string(lt), "emi", Round2(emi))
	return ApprovalResult{
		Status: StatusApproved,
		Message: fmt.Sprintf("%s loan approved. EMI: %.2f/month for %s years. Loan details saved.",
			lt.Display(), emi, formatAmount(years)),
		EMI: Round2(emi),
	}, nil
}

// FixedDepositEntry mirrors the persisted deposit row with numeric types.
type FixedDepositEntry struct {
	AccountNumber  string  `json:"account_number"`
	Amount         float64 `json:"amount"`
	Years          float64 `json:"years"`
	MaturityAmount float64 `json:"maturity_amount"`
}

// CreateFixedDeposit computes simple-interest maturity and appends the
// record: maturity = amount + amount*rate*years.
func (s *Service) CreateFixedDeposit(accountNumber string, amount, years float64) (FixedDepositEntry, error) {
	maturity := Round2(amount + amount*FixedDepositRate*years)
	entry := FixedDepositEntry{
		AccountNumber:  accountNumber,
		Amount:         amount,
		Years:          years,
		MaturityAmount: maturity,
	}
	record := store.Deposit{
		AccountNumber:  accountNumber,
		Amount:         formatAmount(amount),
		Years:          formatAmount(years),
		MaturityAmount: strconv.FormatFloat(maturity, 'f', 2, 64),
	}
	if err := s.deposits.Append(record); err != nil {
		s.logger.Error("deposit_record_write_failed", "account", accountNumber, "error", err)
		return FixedDepositEntry{}, err
	}
	s.logger.Info("fixed_deposit_created", "account", accountNumber, "maturity", maturity)
	return entry, nil
}

// UpdateProfile writes the given subset of known columns. Empty values
// and unknown columns are skipped; unknown accounts are a no-op.
func (s *Service) UpdateProfile(accountNumber string, fields map[string]string) (bool, error) {
	filtered := make(map[string]string, len(fields))
	for col, val := range fields {
		if !store.IsUserColumn(col) {
			continue
		}
		if strings.TrimSpace(val) == "" {
			continue
		}
		filtered[col] = val
	}
	if len(filtered) == 0 {
		_, found, err := s.users.Get(accountNumber)
		return found, err
	}
	return s.users.Update(accountNumber, filtered)
}

// formatAmount keeps whole numbers free of trailing zeros in records.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
