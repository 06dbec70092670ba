//go:build !tesseract

package ocr

// Available reports whether Tesseract support is compiled in.
func Available() bool { return false }

func readText([]byte, string) (string, error) {
	return "", ErrUnavailable
}
