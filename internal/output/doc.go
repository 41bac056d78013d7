// Package output provides deterministic encoding and ordering for modplan
// reports.
//
// Identical analyses must produce byte-identical JSON so that reports can be
// diffed in CI and used as golden fixtures. DeterministicEncode guarantees:
//
//  1. Object keys are sorted alphabetically
//  2. Floats are rounded to at most 6 decimal places
//  3. Nil values, empty slices and empty maps are omitted
//  4. Types with their own MarshalJSON are encoded through it
//
// # Ordering Contract
//
//   - violations and findings: severity (critical, error, warning, info) → key ASC
//   - scored items: score DESC → key ASC
//   - risk-ranked items: risk (critical, high, medium, low) → key ASC
//
// MultiFieldSort supports user-selected orderings such as the CLI
// "--sort ca:desc,id" flag.
package output
