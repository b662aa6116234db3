package bank

import "strings"

// LoanType is a supported loan product.
type LoanType string

const (
	LoanPersonal LoanType = "personal"
	LoanStudent  LoanType = "student"
	LoanHome     LoanType = "home"
)

// Annual interest rates per product. EMI uses monthly compounding.
var annualRates = map[LoanType]float64{
	LoanPersonal: 0.125,
	LoanStudent:  0.085,
	LoanHome:     0.072,
}

// FixedDepositRate is the simple-interest annual rate for deposits.
const FixedDepositRate = 0.068

// Affordability ceilings: approved EMI must not exceed this fraction of
// monthly salary. Student loans have no salary check; they are referred
// out before any affordability test.
var salaryCaps = map[LoanType]float64{
	LoanPersonal: 0.6,
	LoanHome:     0.5,
}

// ParseLoanType normalizes user/model input into a LoanType.
func ParseLoanType(s string) (LoanType, bool) {
	lt := LoanType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := annualRates[lt]
	return lt, ok
}

// Display renders the loan type the way loan records store it.
func (lt LoanType) Display() string {
	s := string(lt)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
