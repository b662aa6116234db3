package bank

import (
	"errors"
	"math"
)

var ErrUnknownLoanType = errors.New("unknown loan type. Supported types: personal, student, home")

// Quote is the closed-form result of an EMI calculation.
type Quote struct {
	EMI           float64 `json:"emi"`
	TotalInterest float64 `json:"total_interest"`
}

// MonthlyEMI computes the standard amortized installment:
// EMI = P*r*(1+r)^n / ((1+r)^n - 1), r = monthly rate, n = months.
func MonthlyEMI(principal, years, annualRate float64) float64 {
	r := annualRate / 12
	n := years * 12
	growth := math.Pow(1+r, n)
	return (principal * r * growth) / (growth - 1)
}

// QuoteLoan derives EMI and total interest for the given product.
// Unknown types return ErrUnknownLoanType as a value for the caller to
// shape, never a panic.
func QuoteLoan(principal, years float64, loanType string) (Quote, error) {
	lt, ok := ParseLoanType(loanType)
	if !ok {
		return Quote{}, ErrUnknownLoanType
	}
	emi := MonthlyEMI(principal, years, annualRates[lt])
	totalInterest := emi*years*12 - principal
	return Quote{EMI: Round2(emi), TotalInterest: Round2(totalInterest)}, nil
}

// Round2 rounds a monetary value to 2 decimal places for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
