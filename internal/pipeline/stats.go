package pipeline

// Summary counts what a run did.
type Summary struct {
	// Found is the number of files with the profile extension.
	Found int

	// Skipped counts files excluded because they are already scaled.
	Skipped int

	// Processed counts files that were attempted.
	Processed int

	// Succeeded counts files written (or, in a dry run, that would be).
	Succeeded int

	// Failed counts attempted files that produced no output.
	Failed int
}

// Add merges o into s.
func (s *Summary) Add(o Summary) {
	s.Found += o.Found
	s.Skipped += o.Skipped
	s.Processed += o.Processed
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
}

// record counts the outcome of one attempted file.
func (s *Summary) record(err error) {
	s.Processed++
	if err != nil {
		s.Failed++
		return
	}
	s.Succeeded++
}
