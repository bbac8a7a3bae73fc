package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	enc "github.com/jpereiran/txlink/internal/encoding"
)

// LoadCSV reads the transaction and user exports and returns an in-memory
// Set. Both files go through encoding detection first, so exports saved as
// Windows-1252 or UTF-16 load the same as clean UTF-8.
func LoadCSV(transactionsPath, usersPath string) (*Set, error) {
	txs, err := loadTransactionsFile(transactionsPath)
	if err != nil {
		return nil, fmt.Errorf("load transactions %s: %w", transactionsPath, err)
	}

	users, err := loadUsersFile(usersPath)
	if err != nil {
		return nil, fmt.Errorf("load users %s: %w", usersPath, err)
	}

	return NewSet(txs, users), nil
}

func loadTransactionsFile(path string) ([]*Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadTransactions(f)
}

func loadUsersFile(path string) ([]*User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadUsers(f)
}

// transactionColumns maps normalized header spellings to canonical names, so
// exports with headers like "Transaction ID" or "Amount ($)" parse the same
// as a clean id,description,amount,date file.
var transactionColumns = map[string]string{
	"id":              "id",
	"transactionid":   "id",
	"txid":            "id",
	"description":     "description",
	"desc":            "description",
	"amount":          "amount",
	"value":           "amount",
	"date":            "date",
	"transactiondate": "date",
}

var userColumns = map[string]string{
	"id":         "id",
	"userid":     "id",
	"name":       "name",
	"fullname":   "name",
	"username":   "name",
	"firstname":  "first",
	"first":      "first",
	"middlename": "middle",
	"middle":     "middle",
	"lastname":   "last",
	"last":       "last",
	"surname":    "last",
}

// ReadTransactions parses a transaction CSV. Rows without an id are skipped;
// rows whose amount does not parse are skipped rather than failing the whole
// file, since bank exports often carry footer or subtotal rows.
func ReadTransactions(r io.Reader) ([]*Transaction, error) {
	cols, rows, err := readTable(r, transactionColumns, []string{"id", "description"})
	if err != nil {
		return nil, err
	}

	txs := make([]*Transaction, 0, len(rows))

	for _, row := range rows {
		id := cellValue(row, cols, "id")
		if id == "" {
			continue
		}

		amount := int64(0)

		if s := cellValue(row, cols, "amount"); s != "" {
			cents, err := parseAmountCents(s)
			if err != nil {
				continue
			}

			amount = cents
		}

		txs = append(txs, &Transaction{
			ID:          id,
			Description: cellValue(row, cols, "description"),
			Amount:      amount,
			Date:        cellValue(row, cols, "date"),
		})
	}

	return txs, nil
}

// ReadUsers parses a user CSV. Name may come as one full-name column or as
// separate first/middle/last columns.
func ReadUsers(r io.Reader) ([]*User, error) {
	cols, rows, err := readTable(r, userColumns, []string{"id"})
	if err != nil {
		return nil, err
	}

	if _, hasName := cols["name"]; !hasName {
		if _, hasFirst := cols["first"]; !hasFirst {
			return nil, fmt.Errorf("no name or first name column found")
		}
	}

	users := make([]*User, 0, len(rows))

	for _, row := range rows {
		id := cellValue(row, cols, "id")
		if id == "" {
			continue
		}

		users = append(users, &User{
			ID:     id,
			Name:   cellValue(row, cols, "name"),
			First:  cellValue(row, cols, "first"),
			Middle: cellValue(row, cols, "middle"),
			Last:   cellValue(row, cols, "last"),
		})
	}

	return users, nil
}

// readTable decodes the input to UTF-8, reads every row and scans for the
// first row whose cells cover the required canonical columns. Rows above the
// header (report titles, export metadata) are ignored.
func readTable(r io.Reader, aliases map[string]string, required []string) (map[string]int, [][]string, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}

	for rowIdx, row := range rows {
		cols := make(map[string]int)

		for i, cell := range row {
			canon, ok := aliases[normalizeHeader(cell)]
			if !ok {
				continue
			}

			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}

		if hasColumns(cols, required) {
			return cols, rows[rowIdx+1:], nil
		}
	}

	return nil, nil, fmt.Errorf("no header row with columns: %s", strings.Join(required, ", "))
}

func hasColumns(cols map[string]int, required []string) bool {
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// normalizeHeader reduces a header cell to lowercase letters and digits, so
// "Amount ($)", "amount " and "AMOUNT" all resolve to "amount".
func normalizeHeader(s string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func cellValue(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// parseAmountCents parses an amount string into cents, accepting both
// "1,234.56" and "1.234,56" styles plus a leading currency symbol. The
// decimal separator is whichever of '.' or ',' appears last.
func parseAmountCents(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimLeft(clean, "$€£ ")
	clean = strings.ReplaceAll(clean, " ", "")

	if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
