// Package audit evaluates screening procedures over a normalized ledger.
//
// The package is independent of file formats and transports. It takes a
// [ledger.Table], annotates every entry with six boolean flags, and reduces
// the flags to per-procedure occurrence counts.
//
// # Flags
//
// Every entry receives each flag independently; one entry may trigger any
// subset:
//
//   - [FlagOutlier]: gross value above a multiple of its account's mean.
//   - [FlagExceedsTolerance]: gross value strictly above the materiality threshold.
//   - [FlagRoundAmount]: positive gross value that is an exact multiple of the round unit.
//   - [FlagMissingDescription]: description absent or shorter than the minimum.
//   - [FlagWeekend]: known date falling on Saturday or Sunday.
//   - [FlagKeyword]: description containing any sensitive keyword.
//
// # Procedures
//
// The report is driven by an ordered list of [Procedure] records: the full
// listing first, then one procedure per flag in flag order. The same order
// drives sheet order and the order of [Stats], so output never depends on
// map iteration.
//
// # Thresholds
//
// Amounts are [decimal.Decimal] throughout. The outlier test compares
// gross*count against multiplier*sum, so no division or rounding takes place.
package audit
