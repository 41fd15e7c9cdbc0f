package valuation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/valuation/date"
)

// this file contains functions to handle the market data import/export format.
// It should remain human readable, single file and easy to diff.

// jseries is one line of the market data format.
type jseries struct {
	Symbol  string             `json:"symbol,omitempty"`
	Pair    string             `json:"pair,omitempty"`
	History map[string]float64 `json:"history"`
}

// ImportMarketData reads market data from 'r' in the import/export format.
//
// The format is a JSONL file, where each line is a JSON object holding either a
// 'symbol' (security prices) or a 'pair' (exchange rates), and a 'history'
// object whose properties are dates parseable by the [date] package and values
// are numbers.
func ImportMarketData(r io.Reader) (*MarketData, error) {
	m := NewMarketData()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var js jseries
		if err := json.Unmarshal([]byte(text), &js); err != nil {
			return nil, fmt.Errorf("line %d: cannot parse market data: %w", line, err)
		}
		h := new(date.History[float64])
		for day, value := range js.History {
			d, err := date.Parse(day)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			h.Append(d, value)
		}
		switch {
		case js.Symbol != "" && js.Pair == "":
			m.SetPrices(js.Symbol, h)
		case js.Pair != "" && js.Symbol == "":
			p := CurrencyPair(js.Pair)
			if _, _, err := p.Currencies(); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			m.SetRates(p, h)
		default:
			return nil, fmt.Errorf("line %d: exactly one of 'symbol' or 'pair' is required", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExportMarketData writes m to 'w' in the import/export format, securities
// first then pairs, each sorted.
func ExportMarketData(w io.Writer, m *MarketData) error {
	write := func(js jseries, h *date.History[float64]) error {
		js.History = make(map[string]float64, h.Len())
		for day, value := range h.Values() {
			js.History[day.String()] = value
		}
		data, err := json.Marshal(js)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	for _, s := range m.Symbols() {
		if err := write(jseries{Symbol: s}, m.prices[s]); err != nil {
			return fmt.Errorf("cannot write prices of %q: %w", s, err)
		}
	}
	for _, p := range m.CurrencyPairs() {
		if err := write(jseries{Pair: string(p)}, m.rates[p]); err != nil {
			return fmt.Errorf("cannot write rates of %q: %w", p, err)
		}
	}
	return nil
}
