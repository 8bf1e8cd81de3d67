// Package core runs the ledger audit pipeline.
//
// It is independent of any transport: the CLI, the HTTP handlers and the
// inbox scheduler all call [Service.Run] with an input path, an output path
// and the tolerance text, and get back the run id and the ordered
// per-procedure counts.
//
// # Pipeline
//
//  1. Parse the tolerance and check the input format and destination.
//     These input errors are returned before anything is read or written.
//  2. Wait for a run slot ([RunLimiter]) and for the destination lock.
//  3. Load and normalize the ledger ([ledger.Load]).
//  4. Evaluate the six procedures ([audit.Evaluate]) and count them
//     ([audit.Aggregate]).
//  5. Assemble one view per sheet and write the workbook atomically.
//
// # Error Handling
//
// Errors keep their sentinel through %w wrapping. [MapError] turns any of
// them into a coded [UserMessage]; see error_messages.go for the codes.
//
// # Inbox
//
// [Inbox] scans a drop folder on a cron schedule and audits each ledger
// file it finds, moving sources to processed/ or failed/.
package core
