// Package valuation computes the daily value, cost basis and profit of a
// multi-currency portfolio of securities, and the purchases needed to bring it
// back to a target allocation.
//
// The main pieces are:
//   - Configuration: a TOML file describing the securities, the reporting
//     currency, the target weight groups and the broker ledger files. It is
//     validated once into a [Universe].
//   - Market Data: daily prices and exchange rates fetched from a [Provider]
//     or read from a JSONL market file.
//   - Currency Normalization: an [ExchangeRateTable] converts prices and
//     ledger payments into the reporting currency.
//   - Valuation: [Valuate] merges normalized prices and transactions into a
//     gap-free daily [Valuation] per security and for the whole portfolio.
//   - Rebalancing: [NewWeights] and [NewGoal] compare the allocation against
//     its targets and derive a purchase-only plan.
//
// Everything is recomputed from raw inputs on each run, there is no persisted
// derived state. This package is the foundation of the `pfv` command-line tool.
package valuation
