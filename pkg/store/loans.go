package store

import (
	"sync"

	"github.com/harunnryd/teller/pkg/errorsx"
)

// CSVLoanStore is the append-only approved-loans table.
type CSVLoanStore struct {
	mu   sync.Mutex
	path string
}

func NewCSVLoanStore(path string) *CSVLoanStore {
	return &CSVLoanStore{path: path}
}

func (s *CSVLoanStore) Append(l Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	header, rows, err := readTable(s.path)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	if len(header) == 0 {
		header = loanColumns
	}
	rows = append(rows, l.toRow())
	if err := rewriteTable(s.path, header, rows); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	return nil
}

// ListByAccount returns the account's loans oldest-first, as stored.
func (s *CSVLoanStore) ListByAccount(accountNumber string) ([]Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rows, err := readTable(s.path)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	var out []Loan
	for _, row := range rows {
		if matchAccount(row, accountNumber) {
			out = append(out, loanFromRow(row))
		}
	}
	return out, nil
}

var _ LoanStore = (*CSVLoanStore)(nil)
