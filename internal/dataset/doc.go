// Package dataset owns the canonical in-memory enrolment dataset: the
// monthly enrolment and update time series, per-state aggregates, and the
// national demographic breakdowns.
//
// The Repository is initialized once at startup. It attempts a single
// bounded fetch from Data.gov.in and falls back to a deterministic synthetic
// generator when the live source yields nothing usable, so callers can
// always assume a populated dataset. After initialization the dataset is an
// immutable snapshot; every getter computes a fresh view.
package dataset
