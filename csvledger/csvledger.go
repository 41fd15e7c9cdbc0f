// Package csvledger reads broker transaction files into valuation transactions.
//
// Two layouts are supported:
//
//   - wide: the usual broker exports. The date column is followed by one
//     count column per security, named after its short name, and the payment
//     and fee columns. Each row holds at most one non empty count cell.
//   - long: one row per transaction with a security column and a count column.
//
// A row without any count cell is kept without security: its payment and fee
// are expenses of the portfolio only. Empty amount cells read as zero. Rows
// are never merged nor deduplicated.
package csvledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LoadAll reads every ledger file of u, in declaration order.
func LoadAll(u *valuation.Universe, log logrus.FieldLogger) ([]valuation.Transaction, error) {
	var txs []valuation.Transaction
	for _, src := range u.Ledgers {
		part, err := Load(u, src, log)
		if err != nil {
			return nil, err
		}
		txs = append(txs, part...)
	}
	return txs, nil
}

// Load reads one ledger file.
func Load(u *valuation.Universe, src valuation.LedgerSource, log logrus.FieldLogger) ([]valuation.Transaction, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, valuation.NewError(valuation.StageParse, src.Path, err)
	}
	defer f.Close()
	return Read(f, u, src, log)
}

// Read decodes a ledger from r. src.Path is only used in messages.
func Read(r io.Reader, u *valuation.Universe, src valuation.LedgerSource, log logrus.FieldLogger) ([]valuation.Transaction, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("file", src.Path)

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		log.Warn("empty ledger")
		return nil, nil
	}
	if err != nil {
		return nil, valuation.NewError(valuation.StageParse, src.Path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	p, err := newParser(u, src, header)
	if err != nil {
		return nil, valuation.NewError(valuation.StageParse, src.Path, err)
	}

	var txs []valuation.Transaction
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, valuation.NewError(valuation.StageParse, src.Path, err)
		}
		line, _ := cr.FieldPos(0)
		source := fmt.Sprintf("%s:%d", src.Path, line)
		tx, err := p.parse(record)
		if err != nil {
			return nil, valuation.NewError(valuation.StageParse, source, err)
		}
		tx.Source = source
		if tx.Security == "" {
			log.WithFields(logrus.Fields{"line": line, "payment": tx.Payment, "fee": tx.Fee}).
				Warn("row without security count, kept as an expense of the portfolio only")
		}
		txs = append(txs, tx)
	}
	log.WithField("count", len(txs)).Debug("ledger loaded")
	return txs, nil
}

// parser knows the role of every column of a file.
type parser struct {
	src      valuation.LedgerSource
	header   []string
	date     int
	payment  int
	fee      int            // -1 without fee column
	security int            // long layout only
	count    int            // long layout only
	counts   map[int]string // wide layout: column to short name
	universe *valuation.Universe
}

func newParser(u *valuation.Universe, src valuation.LedgerSource, header []string) (*parser, error) {
	p := &parser{src: src, header: header, universe: u, fee: -1, security: -1, count: -1}
	column := func(name string) (int, error) {
		i := slices.Index(header, name)
		if i < 0 {
			return -1, fmt.Errorf("missing column %q", name)
		}
		return i, nil
	}

	var err error
	if src.DateColumn != "" {
		if p.date, err = column(src.DateColumn); err != nil {
			return nil, err
		}
	}
	if p.payment, err = column(src.PaymentColumn); err != nil {
		return nil, err
	}
	if src.FeeColumn != "" {
		if p.fee, err = column(src.FeeColumn); err != nil {
			return nil, err
		}
	}

	switch src.Layout {
	case valuation.LayoutLong:
		if p.security, err = column(src.SecurityColumn); err != nil {
			return nil, err
		}
		if p.count, err = column(src.CountColumn); err != nil {
			return nil, err
		}
	default:
		p.counts = make(map[int]string)
		for i, name := range header {
			if i == p.date || i == p.payment || i == p.fee {
				continue
			}
			if _, ok := u.Security(name); !ok {
				return nil, fmt.Errorf("%w: column %q", valuation.ErrUnknownSecurity, name)
			}
			p.counts[i] = name
		}
		if len(p.counts) == 0 {
			return nil, errors.New("no security column")
		}
	}
	return p, nil
}

func (p *parser) parse(record []string) (valuation.Transaction, error) {
	tx := valuation.Transaction{
		PaymentCurrency: p.src.PaymentCurrency,
		FeeCurrency:     p.src.FeeCurrency,
	}
	var err error
	if tx.Date, err = date.Parse(strings.TrimSpace(record[p.date])); err != nil {
		return tx, err
	}
	if tx.Payment, err = amount(p.header[p.payment], record[p.payment]); err != nil {
		return tx, err
	}
	if p.fee >= 0 {
		if tx.Fee, err = amount(p.header[p.fee], record[p.fee]); err != nil {
			return tx, err
		}
	}

	var count string
	if p.src.Layout == valuation.LayoutLong {
		tx.Security = strings.TrimSpace(record[p.security])
		if tx.Security == "" {
			return tx, nil
		}
		if _, ok := p.universe.Security(tx.Security); !ok {
			return tx, fmt.Errorf("%w: %q", valuation.ErrUnknownSecurity, tx.Security)
		}
		count = record[p.count]
	} else {
		for i, name := range p.counts {
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			if tx.Security != "" {
				return tx, fmt.Errorf("counts for both %s and %s on the same row", tx.Security, name)
			}
			tx.Security, count = name, cell
		}
	}
	if tx.Security == "" {
		// fees or payments without units, like custody fees.
		return tx, nil
	}
	c, err := amount("count", count)
	if err != nil {
		return tx, err
	}
	tx.Count = valuation.Q(c)
	return tx, nil
}

// amount parses a decimal cell, empty is zero.
func amount(column, cell string) (decimal.Decimal, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", column, cell, err)
	}
	return d, nil
}
