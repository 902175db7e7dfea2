package service

import "fmt"

// ErrorKind classifies analysis failures. Each kind maps to a process exit
// code.
type ErrorKind int

const (
	// KindNoFilesFound means discovery produced no target files.
	KindNoFilesFound ErrorKind = iota + 1
	// KindInvalidPath means the input path could not be canonicalized.
	KindInvalidPath
	// KindAnalysis covers every other fatal failure, such as a missing
	// package.json.
	KindAnalysis
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoFilesFound:
		return "no_files_found"
	case KindInvalidPath:
		return "invalid_path"
	case KindAnalysis:
		return "analysis"
	default:
		return "unknown"
	}
}

// AnalysisError is a fatal error of a run.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// ExitCode is the process exit code for the error: 1 no files found,
// 2 invalid path, 3 any other analysis error.
func (e *AnalysisError) ExitCode() int {
	switch e.Kind {
	case KindNoFilesFound:
		return 1
	case KindInvalidPath:
		return 2
	default:
		return 3
	}
}

func newError(kind ErrorKind, message string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, Err: err}
}
