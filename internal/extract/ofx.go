package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// Headers produced for OFX statements.
const (
	OFXHeaderDate        = "Date"
	OFXHeaderDescription = "Description"
	OFXHeaderAmount      = "Amount"
	OFXHeaderType        = "Type"
	OFXHeaderReference   = "Reference"
	OFXHeaderBalance     = "Balance"
)

var ofxHeaders = []string{
	OFXHeaderDate, OFXHeaderDescription, OFXHeaderAmount,
	OFXHeaderType, OFXHeaderReference, OFXHeaderBalance,
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags missing their closing bracket at end of line.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

var descriptionPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"CARD PAYMENT TO ",
	"DIRECT DEBIT ",
	"STANDING ORDER ",
	"FASTER PAYMENT ",
	"VISA PURCHASE ",
	"DEBIT PURCHASE ",
}

var genericDescriptions = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

// OFXExtractor reads OFX and QFX downloads. Bank and credit card
// statements become rows under fixed headers.
type OFXExtractor struct{}

// NewOFXExtractor creates an OFX extractor.
func NewOFXExtractor() *OFXExtractor {
	return &OFXExtractor{}
}

// ExtractRows implements Extractor.
func (e *OFXExtractor) ExtractRows(ctx context.Context, path string, progress ProgressFunc) (*Extraction, error) {
	progress.report(StageReading, 0, "reading %s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyFile
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction cancelled: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	progress.report(StageParsing, 50, "parsed OFX response")

	result := &Extraction{Source: SourceOFX, Headers: append([]string(nil), ofxHeaders...)}
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		result.add(statementRows(stmt.BankTranList.Transactions, &stmt.BalAmt, stmt.DtAsOf))
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		result.add(statementRows(stmt.BankTranList.Transactions, &stmt.BalAmt, stmt.DtAsOf))
	}

	slog.Info("parsed OFX file",
		"rows", len(result.Rows),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	result.Quality = quality(result.Stats.ParsedRows, result.Stats.TotalLines)
	progress.report(StageDone, 100, "extracted %d transactions", result.Stats.ParsedRows)
	return result, nil
}

func (x *Extraction) add(rows []model.RawRow) {
	x.Rows = append(x.Rows, rows...)
	x.Stats.TotalLines += len(rows)
	x.Stats.ParsedRows += len(rows)
}

// preprocessOFX fixes common formatting issues in bank-produced files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// statementRows converts one statement's transactions. When the statement
// carries a ledger balance, each row gets the running balance after it,
// worked backwards from the ledger balance in posting order.
func statementRows(txns []ofxgo.Transaction, ledger *ofxgo.Amount, asOf ofxgo.Date) []model.RawRow {
	rows := make([]model.RawRow, len(txns))
	for i, tx := range txns {
		reference := string(tx.FiTID)
		if tx.CheckNum != "" {
			reference = string(tx.CheckNum)
		}
		rows[i] = model.RawRow{
			OFXHeaderDate:        tx.DtPosted.Format("2006-01-02"),
			OFXHeaderDescription: description(tx),
			OFXHeaderAmount:      tx.TrnAmt.FloatString(2),
			OFXHeaderType:        fmt.Sprintf("%v", tx.TrnType),
			OFXHeaderReference:   reference,
			OFXHeaderBalance:     "",
		}
	}

	if asOf.IsZero() || len(txns) == 0 {
		return rows
	}

	order := make([]int, len(txns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return txns[order[a]].DtPosted.Before(txns[order[b]].DtPosted.Time)
	})

	balance := new(big.Rat).Set(&ledger.Rat)
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		rows[i][OFXHeaderBalance] = balance.FloatString(2)
		balance.Sub(balance, &txns[i].TrnAmt.Rat)
	}
	return rows
}

// description returns the cleanest available payee text.
func description(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && genericDescriptions[strings.ToUpper(name)] {
		name = strings.TrimSpace(string(tx.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range descriptionPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	return name
}
