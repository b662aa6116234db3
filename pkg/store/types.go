package store

import (
	"errors"
	"regexp"
)

// Sentinel stored in place of fields the customer never supplied.
const DataNotAvailable = "Data not available"

var (
	ErrDuplicateAccount = errors.New("account number already exists")
	ErrNotFound         = errors.New("record not found")
)

var accountNumberRe = regexp.MustCompile(`^\d{10}$`)

// ValidAccountNumber reports whether acc is a 10-digit numeric string,
// the join key across all tables.
func ValidAccountNumber(acc string) bool {
	return accountNumberRe.MatchString(acc)
}

// User is one row of the users table. Fields are strings because the
// table is schemaless CSV and unset values carry the sentinel.
type User struct {
	AccountNumber string
	Name          string
	CreditScore   string
	Balance       string
	AccountType   string
	Branch        string
	IFSC          string
	Phone         string
	Email         string
	MonthlySalary string
}

// IsZero reports an anonymous (not logged in) user context.
func (u User) IsZero() bool {
	return u.AccountNumber == ""
}

// Loan is one approved-loan row.
type Loan struct {
	AccountNumber string
	Name          string
	LoanType      string
	LoanAmount    string
	DurationYears string
	MonthlySalary string
	ApprovedEMI   string
}

// Deposit is one fixed-deposit row.
type Deposit struct {
	AccountNumber  string
	Amount         string
	Years          string
	MaturityAmount string
}

type UserStore interface {
	Get(accountNumber string) (User, bool, error)
	Create(u User) error
	// Update writes the given subset of known columns for the account.
	// Unknown accounts are a no-op (found=false), matching the original
	// best-effort semantics.
	Update(accountNumber string, fields map[string]string) (found bool, err error)
}

type LoanStore interface {
	Append(l Loan) error
	ListByAccount(accountNumber string) ([]Loan, error)
}

type DepositStore interface {
	Append(d Deposit) error
	ListByAccount(accountNumber string) ([]Deposit, error)
}

// UserColumns is the users table header, in storage order.
var UserColumns = []string{
	"account_number", "name", "credit_score", "balance", "account_type",
	"branch", "ifsc", "phone", "email", "monthly_salary",
}

// IsUserColumn reports whether name is a known profile column. The
// account number is the key and is never writable through Update.
func IsUserColumn(name string) bool {
	if name == "account_number" {
		return false
	}
	for _, c := range UserColumns {
		if c == name {
			return true
		}
	}
	return false
}

func (u User) toRow() map[string]string {
	return map[string]string{
		"account_number": u.AccountNumber,
		"name":           u.Name,
		"credit_score":   u.CreditScore,
		"balance":        u.Balance,
		"account_type":   u.AccountType,
		"branch":         u.Branch,
		"ifsc":           u.IFSC,
		"phone":          u.Phone,
		"email":          u.Email,
		"monthly_salary": u.MonthlySalary,
	}
}

func userFromRow(row map[string]string) User {
	return User{
		AccountNumber: row["account_number"],
		Name:          row["name"],
		CreditScore:   row["credit_score"],
		Balance:       row["balance"],
		AccountType:   row["account_type"],
		Branch:        row["branch"],
		IFSC:          row["ifsc"],
		Phone:         row["phone"],
		Email:         row["email"],
		MonthlySalary: row["monthly_salary"],
	}
}

var loanColumns = []string{
	"account_number", "name", "loan_type", "loan_amount",
	"duration_years", "monthly_salary", "approved_emi",
}

func (l Loan) toRow() map[string]string {
	return map[string]string{
		"account_number": l.AccountNumber,
		"name":           l.Name,
		"loan_type":      l.LoanType,
		"loan_amount":    l.LoanAmount,
		"duration_years": l.DurationYears,
		"monthly_salary": l.MonthlySalary,
		"approved_emi":   l.ApprovedEMI,
	}
}

func loanFromRow(row map[string]string) Loan {
	return Loan{
		AccountNumber: row["account_number"],
		Name:          row["name"],
		LoanType:      row["loan_type"],
		LoanAmount:    row["loan_amount"],
		DurationYears: row["duration_years"],
		MonthlySalary: row["monthly_salary"],
		ApprovedEMI:   row["approved_emi"],
	}
}

var depositColumns = []string{"account_number", "amount", "years", "maturity_amount"}

func (d Deposit) toRow() map[string]string {
	return map[string]string{
		"account_number":  d.AccountNumber,
		"amount":          d.Amount,
		"years":           d.Years,
		"maturity_amount": d.MaturityAmount,
	}
}

func depositFromRow(row map[string]string) Deposit {
	return Deposit{
		AccountNumber:  row["account_number"],
		Amount:         row["amount"],
		Years:          row["years"],
		MaturityAmount: row["maturity_amount"],
	}
}
