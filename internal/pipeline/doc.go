// Package pipeline walks files and directories, resolves a calibration for
// each eligible image, burns in the scale bar, and reports results.
//
// Two profiles exist: [Generic] (.png, any size, black bar, label hidden) and
// [IX71] (.tif, exactly 1920×1440, white bar, label shown, key inferred from
// the filename when not given).
//
// Every failure is reported to the user and swallowed; one bad file never
// stops a batch. Outputs are written next to the input with "_scaled" before
// the extension, and any file whose name already carries that marker is
// skipped.
package pipeline
