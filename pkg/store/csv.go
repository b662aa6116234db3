package store

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harunnryd/teller/pkg/resilience"
)

// Rewrites retry once over transient filesystem errors (busy temp dir,
// delayed rename on network mounts) before surfacing a store error.
var writeRetry = resilience.NewRetryPolicy(1, 50*time.Millisecond)

func rewriteTable(path string, header []string, rows []map[string]string) error {
	return writeRetry.Do(func() error {
		return writeTable(path, header, rows)
	})
}

// readTable loads a CSV file into header-keyed rows. A missing file is
// an empty table, not an error.
func readTable(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// writeTable rewrites the whole file atomically (temp file + rename) so
// a crash mid-write never leaves a truncated table behind.
func writeTable(path string, header []string, rows []map[string]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(header))
		for i, col := range header {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func matchAccount(row map[string]string, acc string) bool {
	return strings.TrimSpace(row["account_number"]) == strings.TrimSpace(acc)
}
