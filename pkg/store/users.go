package store

import (
	"strings"
	"sync"

	"github.com/harunnryd/teller/pkg/errorsx"
)

// CSVUserStore keeps user profiles in a single CSV table. All access is
// serialized through one mutex so a read-modify-write cycle never races
// a concurrent conversation for the same account.
type CSVUserStore struct {
	mu   sync.Mutex
	path string
}

func NewCSVUserStore(path string) *CSVUserStore {
	return &CSVUserStore{path: path}
}

func (s *CSVUserStore) Get(accountNumber string) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rows, err := readTable(s.path)
	if err != nil {
		return User{}, false, errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	for _, row := range rows {
		if matchAccount(row, accountNumber) {
			return userFromRow(row), true, nil
		}
	}
	return User{}, false, nil
}

func (s *CSVUserStore) Create(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	header, rows, err := readTable(s.path)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	for _, row := range rows {
		if matchAccount(row, u.AccountNumber) {
			return errorsx.Wrap(ErrDuplicateAccount, errorsx.ReasonDuplicateRecord)
		}
	}
	if len(header) == 0 {
		header = UserColumns
	}
	row := u.toRow()
	for col, val := range row {
		if strings.TrimSpace(val) == "" && col != "account_number" {
			row[col] = DataNotAvailable
		}
	}
	rows = append(rows, row)
	if err := rewriteTable(s.path, header, rows); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	return nil
}

func (s *CSVUserStore) Update(accountNumber string, fields map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	header, rows, err := readTable(s.path)
	if err != nil {
		return false, errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	var target map[string]string
	for _, row := range rows {
		if matchAccount(row, accountNumber) {
			target = row
			break
		}
	}
	if target == nil {
		return false, nil
	}
	updated := false
	for col, val := range fields {
		if !IsUserColumn(col) {
			continue
		}
		target[col] = val
		updated = true
	}
	if !updated {
		return true, nil
	}
	if err := rewriteTable(s.path, header, rows); err != nil {
		return true, errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	return true, nil
}

var _ UserStore = (*CSVUserStore)(nil)
