package dedup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Header is the CSV header for a known-records file.
const Header = "date,amount,institution,account,statement,merchant"

const (
	numFields      = 6
	dateFormat     = "2006-01-02"
	colDate        = 0
	colAmount      = 1
	colInstitution = 2
	colAccount     = 3
	colStatement   = 4
	colMerchant    = 5
)

// MarshalRecord converts a Transaction to a CSV row.
func MarshalRecord(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = t.Date.Format(dateFormat)
	row[colAmount] = t.Amount.StringFixed(2)
	row[colInstitution] = t.Institution
	row[colAccount] = t.Account
	row[colStatement] = t.Statement
	row[colMerchant] = t.Merchant
	return row
}

// UnmarshalRecord converts a CSV row to a Transaction.
func UnmarshalRecord(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.Transaction{
		Date:        date,
		Amount:      amount,
		Institution: record[colInstitution],
		Account:     record[colAccount],
		Statement:   record[colStatement],
		Merchant:    record[colMerchant],
	}, nil
}

// ReadRecords reads all known records from r (header expected).
func ReadRecords(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading known records CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// Load reads a known-records file. A missing file yields an empty set.
func Load(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening known records: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// Append writes transactions to the known-records file, creating it with a
// header if needed.
func Append(path string, txns []model.Transaction) error {
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening known records: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, t := range txns {
		if err := cw.Write(MarshalRecord(t)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	return cw.Error()
}
