// Package ir provides the canonical data model shared by every basket package.
//
// This package contains value types only. All other internal packages import
// ir; ir imports nothing internal. This keeps the model the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Items are NFC-normalised at construction so equal-looking IDs are equal
//   - Itemsets are immutable and always held in canonical (ascending) order
//   - Canonical snapshots carry integer counts only, never floats; every
//     support, confidence and lift is derivable from counts and N
//   - All JSON tags use snake_case
package ir
