package store

import (
	"sync"

	"github.com/harunnryd/teller/pkg/errorsx"
)

// CSVDepositStore is the append-only fixed-deposits table.
type CSVDepositStore struct {
	mu   sync.Mutex
	path string
}

func NewCSVDepositStore(path string) *CSVDepositStore {
	return &CSVDepositStore{path: path}
}

func (s *CSVDepositStore) Append(d Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	header, rows, err := readTable(s.path)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	if len(header) == 0 {
		header = depositColumns
	}
	rows = append(rows, d.toRow())
	if err := rewriteTable(s.path, header, rows); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	return nil
}

func (s *CSVDepositStore) ListByAccount(accountNumber string) ([]Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rows, err := readTable(s.path)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	var out []Deposit
	for _, row := range rows {
		if matchAccount(row, accountNumber) {
			out = append(out, depositFromRow(row))
		}
	}
	return out, nil
}

var _ DepositStore = (*CSVDepositStore)(nil)
