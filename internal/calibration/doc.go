// Package calibration holds the fixed pixel-to-micrometre tables used to size
// scale bars and resolves a configuration key to a bar length and label.
//
// # Tables
//
// Two tables exist:
//   - IX71: six entries keyed by objective and magnification changer
//     ("4X_1X", "4X_1.6X", "10X_1X", "10X_1.6X", "40X_1X", "40X_1.6X").
//     Keys can be inferred from image filenames.
//   - Generic: a single implicit entry (240 px labelled "1 cm") used for
//     every image regardless of key.
//
// Tables are immutable values. Each constructor builds a fresh table; callers
// build one at startup and share it read-only.
//
// # Bar Length
//
// Bar length is the base pixel reference times the entry multiplier,
// truncated toward zero. The constants were measured on the instruments and
// are kept verbatim.
package calibration
