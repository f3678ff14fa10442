package pcrego

import (
	"fmt"

	"github.com/KromDaniel/pcrego/internal/compiler"
)

// AnalysisResult describes a compiled program without its code.
type AnalysisResult = compiler.AnalysisResult

// Analyze compiles pattern and reports which constructs it uses and what
// a matcher can know about where matches start.
//
// Both label arrays are sorted alphabetically for deterministic comparison.
//
// Example:
//
//	result, err := pcrego.Analyze(`(?<n>a|b)\k<n>`, pcrego.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.FeatureLabels) // [Alternation Backreferences Captures NamedGroups]
//	fmt.Println(result.HintLabels)    // [FirstSet]
func Analyze(pattern string, opts Options) (*AnalysisResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res, err := compiler.Analyze(pattern, opts.config())
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}
	return res, nil
}

// AnalyzeProgram describes an already compiled program.
func AnalyzeProgram(p *Program) *AnalysisResult {
	return compiler.AnalyzeProgram(p)
}
