package extract

import (
	"context"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<DTSERVER>20240501120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>GBP
<BANKACCTFROM>
<BANKID>400515
<ACCTID>12345678
<ACCTTYPE>SAVINGS
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240401120000[0:GMT]
<DTEND>20240430120000[0:GMT]
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240402120000[0:GMT]
<TRNAMT>500.00
<FITID>202404020001
<NAME>STANDING ORDER MONTHLY SAVER
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240415120000[0:GMT]
<TRNAMT>-120.00
<FITID>202404150001
<NAME>PAYMENT
<MEMO>Council tax
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240430120000[0:GMT]
<TRNAMT>4.10
<FITID>202404300001
<NAME>INTEREST
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1384.10
<DTASOF>20240430120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>GBP
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.CO.UK
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<CHECKNUM>1042
<NAME>CHEQUE 1042
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestOFXExtractor_BankStatement(t *testing.T) {
	path := writeFile(t, "savings.ofx", sampleBankOFX)

	got, err := NewOFXExtractor().ExtractRows(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, SourceOFX, got.Source)
	assert.Equal(t, []string{"Date", "Description", "Amount", "Type", "Reference", "Balance"}, got.Headers)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, 100, got.Quality)

	first := got.Rows[0]
	assert.Equal(t, "2024-04-02", first["Date"])
	assert.Equal(t, "MONTHLY SAVER", first["Description"])
	assert.Equal(t, "500.00", first["Amount"])
	assert.Equal(t, "CREDIT", first["Type"])
	assert.Equal(t, "202404020001", first["Reference"])

	// A generic name falls back to the memo.
	assert.Equal(t, "Council tax", got.Rows[1]["Description"])
	assert.Equal(t, "-120.00", got.Rows[1]["Amount"])

	// Running balances work back from the ledger balance.
	assert.Equal(t, "1500.00", got.Rows[0]["Balance"])
	assert.Equal(t, "1380.00", got.Rows[1]["Balance"])
	assert.Equal(t, "1384.10", got.Rows[2]["Balance"])
}

func TestOFXExtractor_CreditCardStatement(t *testing.T) {
	path := writeFile(t, "card.qfx", sampleCreditCardOFX)

	got, err := NewOFXExtractor().ExtractRows(context.Background(), path, nil)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)

	assert.Equal(t, "AMAZON.CO.UK", got.Rows[0]["Description"])
	assert.Equal(t, "-45.99", got.Rows[0]["Amount"])
	assert.Equal(t, "1042", got.Rows[1]["Reference"], "cheque number wins over FITID")
	assert.Equal(t, "-500.00", got.Rows[1]["Balance"])
	assert.Equal(t, "-485.00", got.Rows[0]["Balance"])
}

func TestOFXExtractor_Errors(t *testing.T) {
	t.Run("invalid data", func(t *testing.T) {
		path := writeFile(t, "bad.ofx", "not valid OFX")
		_, err := NewOFXExtractor().ExtractRows(context.Background(), path, nil)
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		path := writeFile(t, "empty.ofx", "")
		_, err := NewOFXExtractor().ExtractRows(context.Background(), path, nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}

func TestPreprocessOFX(t *testing.T) {
	in := "\n\n  <SEVERITY>Warn</SEVERITY>\n<CODE\n<NAME>x"
	got := preprocessOFX(in)
	assert.Equal(t, "<SEVERITY>WARN</SEVERITY>\n<CODE>\n<NAME>x", got)
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name     string
		tx       ofxgo.Transaction
		expected string
	}{
		{
			name:     "remove card payment prefix",
			tx:       ofxgo.Transaction{Name: "CARD PAYMENT TO TESCO STORES"},
			expected: "TESCO STORES",
		},
		{
			name:     "remove direct debit prefix",
			tx:       ofxgo.Transaction{Name: "DIRECT DEBIT AVIVA LIFE"},
			expected: "AVIVA LIFE",
		},
		{
			name:     "keep clean name",
			tx:       ofxgo.Transaction{Name: "NETFLIX.COM"},
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			tx:       ofxgo.Transaction{Name: "  AMAZON.CO.UK  "},
			expected: "AMAZON.CO.UK",
		},
		{
			name:     "payee wins",
			tx:       ofxgo.Transaction{Name: "DEBIT", Payee: &ofxgo.Payee{Name: "Octopus Energy"}},
			expected: "Octopus Energy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, description(tt.tx))
		})
	}
}
