// Package core implements the enrollment upload pipeline: spreadsheet
// extraction, date normalization, natural-key matching, and reconciliation
// of uploaded rows against the record store.
//
// The pipeline is synchronous and single-threaded; the only suspension
// points are record store and blob store calls. Validation is completed in
// full before any write happens, so parse and validation failures never
// leave partial state behind.
//
// # Pipeline
//
//	file bytes -> ExtractRows -> []EnrollmentRow
//	           -> buildPlan (natural keys, dedupe, classroom resolution)
//	           -> reconcile (create children, replace current-month assignments)
//	           -> UploadCounts
//
// This package has no HTTP dependencies and can be driven by any frontend.
package core
