// Package domain models prescribed-burn risk assessments for geographic
// locations.
//
// # Data Source
//
// A burn-area record aggregates five upstream sources for one grid cell:
// reverse geocoding (LocationIQ), a daily weather forecast (Open-Meteo), an
// eleven-factor complexity assessment produced by a two-stage language-model
// pipeline, a wildfire probability from the external risk oracle, and nearby
// town population/valuation data (Overpass plus FCC census county lookup).
//
// # Assessment Factors
//
// The language-model stage scores eleven named complexity factors, keyed
// exactly as they appear on the wire:
//
//	safety, fire-behavior, resistance-to-containment,
//	ignition-procedures-and-methods, prescribed-fire-duration,
//	smoke-management, number-and-dependence-of-activities,
//	management-organizations, treatment-resource-objectives,
//	constraints, project-logistics
//
// Each factor is a float on the canonical [0, 1] scale: 0.00-0.33 low,
// 0.34-0.66 moderate, 0.67-1.00 high complexity. Generator output missing a
// key, carrying a non-numeric value, or leaving the range is rejected by
// [ParseStatistics]; persisted records always carry all eleven keys.
//
// # Scale Normalization
//
// Some historical oracle snapshots and bulk imports encode probabilities on a
// [0, 10] scale. Values are normalized once, at ingestion, by
// [NormalizeUnitScale]: anything in (1, 10] is divided by 10, anything
// outside [0, 10] is malformed. Score computation assumes canonical [0, 1]
// inputs and never rescales.
//
// # Grid Quantization
//
// Queries are quantized to a fixed-resolution grid (0.01 degrees by default,
// roughly 1.1 km at the equator) before cache lookup, so nearby queries share
// one cache entry. The cell key is the quantized coordinate pair rendered
// with the resolution's precision, e.g. "34.05,-118.24". See [CellKey].
//
// # ID Generation
//
// Burn-area IDs are deterministic SHA-256 hashes of the cell key, rendered as
// "burn-" plus the first 8 hash bytes in hex. Recomputing a cell always
// yields the same ID, which keeps cache refreshes and bulk exports idempotent
// downstream. See [BurnAreaID].
//
// # Last Burn Date
//
// No burn-history source is wired yet, so the last-burn-date field is a
// deterministic placeholder derived from the cell key hash, mapped into the
// five years preceding a fixed anchor date. Same cell, same date, every
// computation. See [DeriveLastBurnDate].
package domain
