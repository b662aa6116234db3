package tools

import (
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/harunnryd/teller/pkg/errorsx"
)

// Typed argument structs for each capability. The reasoning service is
// loose with types (numbers arrive as strings and vice versa), so
// decoding is weakly typed and key matching ignores case and separators.

type ProfileArgs struct {
	AccountNumber string `mapstructure:"account_number"`
}

type BalanceArgs struct {
	AccountNumber string `mapstructure:"account_number"`
}

type LoanHistoryArgs struct {
	AccountNumber string `mapstructure:"account_number"`
}

type EMIArgs struct {
	Principal     float64 `mapstructure:"principal"`
	Years         float64 `mapstructure:"years"`
	LoanType      string  `mapstructure:"loan_type"`
	MonthlySalary float64 `mapstructure:"monthly_salary"`
}

type ApproveLoanArgs struct {
	AccountNumber string  `mapstructure:"account_number"`
	LoanType      string  `mapstructure:"loan_type"`
	Principal     float64 `mapstructure:"principal"`
	Years         float64 `mapstructure:"years"`
	MonthlySalary float64 `mapstructure:"monthly_salary"`
}

type DepositArgs struct {
	AccountNumber string  `mapstructure:"account_number"`
	Amount        float64 `mapstructure:"amount"`
	Years         float64 `mapstructure:"years"`
}

// DecodeArgs decodes a raw argument map into a typed struct.
func DecodeArgs(input map[string]any, out any) error {
	if len(input) == 0 {
		return nil
	}
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonToolArgs)
	}
	if err := decoder.Decode(input); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonToolArgs)
	}
	return nil
}

// StringFields extracts the string rendering of every argument, used by
// the profile reconciliation side channel.
func StringFields(input map[string]any) map[string]string {
	out := make(map[string]string, len(input))
	for k, v := range input {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			out[k] = strconv.Itoa(val)
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}
