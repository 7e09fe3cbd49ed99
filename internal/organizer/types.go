package organizer

import "fmt"

// MediaFile is a video or subtitle discovered by a scan.
type MediaFile struct {
	// Directory is the absolute path of the containing folder.
	Directory string
	// FilePath is the absolute path of the file. Video paths have the partial
	// download marker removed.
	FilePath string
	// Query is the normalized match key.
	Query string
}

// MatchedPair describes one subtitle relocation.
type MatchedPair struct {
	InputPath  string
	OutputPath string
	// VideoPath is the matched video, for reporting.
	VideoPath string
	// Score is the winning match score.
	Score float64
}

// InPlace reports whether the subtitle already sits at its destination.
func (p MatchedPair) InPlace() bool {
	return samePath(p.InputPath, p.OutputPath)
}

// String renders the pair for human-readable reports.
func (p MatchedPair) String() string {
	return fmt.Sprintf("%s -> %s", p.InputPath, p.OutputPath)
}

// DeleteOutcome records the removal of one original subtitle.
type DeleteOutcome struct {
	Pair MatchedPair
	Err  error
}

// Removed reports whether the original is gone.
func (d DeleteOutcome) Removed() bool { return d.Err == nil }

// Result is the outcome of a completed relocation.
type Result struct {
	Pairs   []MatchedPair
	Deletes []DeleteOutcome
}

// FailedDeletes returns the outcomes whose original could not be removed.
func (r Result) FailedDeletes() []DeleteOutcome {
	var failed []DeleteOutcome
	for _, outcome := range r.Deletes {
		if !outcome.Removed() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Moved counts the pairs that were relocated in this run.
func (r Result) Moved() int {
	moved := 0
	for _, pair := range r.Pairs {
		if !pair.InPlace() {
			moved++
		}
	}
	return moved
}

// Plan is the scan and match outcome before any file is touched.
type Plan struct {
	Videos    []MediaFile
	Subtitles []MediaFile
	Pairs     []MatchedPair
}

// Unmatched returns the subtitles that no video matched.
func (p Plan) Unmatched() []MediaFile {
	matched := make(map[string]struct{}, len(p.Pairs))
	for _, pair := range p.Pairs {
		matched[pair.InputPath] = struct{}{}
	}
	var out []MediaFile
	for _, subtitle := range p.Subtitles {
		if _, ok := matched[subtitle.FilePath]; !ok {
			out = append(out, subtitle)
		}
	}
	return out
}
