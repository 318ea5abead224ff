package domain

import "fmt"

type InvalidRangeError struct {
	StartYear int
	EndYear   int
	MaxYears  int // set when the range is ordered but too long
}

func (e *InvalidRangeError) Error() string {
	if e.MaxYears > 0 {
		return fmt.Sprintf("invalid year range: %d-%d spans more than %d years", e.StartYear, e.EndYear, e.MaxYears)
	}
	return fmt.Sprintf("invalid year range: start year %d is after end year %d", e.StartYear, e.EndYear)
}

// InvalidAssumptionError names the assumption that was rejected and, when relevant, its year
type InvalidAssumptionError struct {
	Field  string
	Year   int // 0 when not tied to a year
	Value  string
	Reason string
}

func (e *InvalidAssumptionError) Error() string {
	if e.Year != 0 {
		return fmt.Sprintf("invalid assumption %s for %d (%s): %s", e.Field, e.Year, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid assumption %s (%s): %s", e.Field, e.Value, e.Reason)
}

type DuplicateScenarioNameError struct {
	Name string
}

func (e *DuplicateScenarioNameError) Error() string {
	return fmt.Sprintf("duplicate scenario name %q", e.Name)
}

type MissingYearError struct {
	Year int
}

func (e *MissingYearError) Error() string {
	return fmt.Sprintf("no external market total for year %d", e.Year)
}

type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
