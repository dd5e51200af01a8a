// Package renewal infers upcoming regulatory renewal dates from the noisy
// date-like fields of public property records.
//
// There is no ground-truth renewal field in the source data. Instead the
// package harvests every date-like value from a raw attribute record
// (bounded recursive walk), classifies each into a signal type by field-name
// heuristics, and projects a best-guess future renewal date:
//
//   - permit/license signals are used directly (a license expiration is the
//     renewal date),
//   - sale/transfer signals project forward on one-year anniversaries,
//   - assessment signals follow Colorado's biennial reassessment cycle,
//     anchored to May 1 of odd years,
//   - update and generic signals project forward on one-year cycles.
//
// The precedence order and cycle constants encode Summit County's actual
// regulatory calendar and must not be reinterpreted as tunable defaults.
// All functions are pure over their inputs; the reference "now" is
// injectable for deterministic tests.
package renewal
