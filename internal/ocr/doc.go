// Package ocr reads back rendered scale bar labels with Tesseract.
//
// The Tesseract binding (gosseract) needs cgo and the Tesseract libraries, so
// it is only compiled with the "tesseract" build tag:
//
//	go build -tags tesseract ./cmd/...
//
// Without the tag, Available reports false and every check returns
// ErrUnavailable.
//
// Only the digits of a label are compared. Tesseract rarely reads the micro
// sign correctly, and the number is what a reader relies on.
package ocr
