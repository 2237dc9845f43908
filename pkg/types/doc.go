// Package types defines the domain types shared across the sync engine:
// remote records with typed property values, mapping rules, ledger entries,
// run results, the engine configuration, and the error taxonomy.
package types
