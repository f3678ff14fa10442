package compiler

import (
	"sort"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

// AnalysisResult contains the results of pattern analysis.
type AnalysisResult struct {
	// FeatureLabels are derived from the compiled program (sorted alphabetically)
	FeatureLabels []string `json:"feature_labels"`

	// HintLabels name the start-of-match facts a matcher can use (sorted alphabetically)
	HintLabels []string `json:"hint_labels"`

	Groups        int    `json:"groups"`
	Size          int    `json:"size"`
	MaxLookbehind int    `json:"max_lookbehind"`
	Possessified  int    `json:"possessified"`
	Fingerprint   uint64 `json:"fingerprint"`
}

// Analyze compiles pattern and describes the program without keeping it.
// It returns an error if the pattern is invalid.
func Analyze(pattern string, cfg Config) (*AnalysisResult, error) {
	prog, err := Compile(pattern, cfg)
	if err != nil {
		return nil, err
	}
	return AnalyzeProgram(prog), nil
}

// AnalyzeProgram describes an already compiled program.
func AnalyzeProgram(p *Program) *AnalysisResult {
	return &AnalysisResult{
		FeatureLabels: deriveFeatureLabels(p),
		HintLabels:    deriveHintLabels(p),
		Groups:        p.Groups,
		Size:          p.Size,
		MaxLookbehind: p.MaxLookbehind,
		Possessified:  p.Possessified,
		Fingerprint:   p.Fingerprint(),
	}
}

// deriveFeatureLabels walks the program once and names the constructs it
// uses.
func deriveFeatureLabels(p *Program) []string {
	seen := map[string]bool{}
	code, utf := p.Code, p.UTF()
	for pc := 0; pc < len(code); pc = bc.Next(code, pc, utf) {
		op := bc.Opcode(code[pc])
		if op == bc.OpEnd {
			break
		}
		switch op {
		case bc.OpAlt:
			seen["Alternation"] = true
		case bc.OpCirc, bc.OpCircM, bc.OpDoll, bc.OpDollM, bc.OpSOD, bc.OpSOM, bc.OpEOD, bc.OpEODN:
			seen["Anchors"] = true
		case bc.OpRef, bc.OpRefI:
			seen["Backreferences"] = true
		case bc.OpCBra, bc.OpSCBra:
			seen["Captures"] = true
		case bc.OpClass, bc.OpNClass, bc.OpXClass:
			seen["CharClass"] = true
		case bc.OpCond, bc.OpSCond:
			seen["Conditionals"] = true
		case bc.OpAssert, bc.OpAssertNot:
			seen["Lookahead"] = true
		case bc.OpAssertBack, bc.OpAssertBackNot:
			seen["Lookbehind"] = true
		case bc.OpOnce:
			seen["Atomic"] = true
		case bc.OpRecurse:
			seen["Recursion"] = true
		case bc.OpProp, bc.OpNotProp, bc.OpExtUni:
			seen["UnicodeProperties"] = true
		case bc.OpWordBoundary, bc.OpNotWordBoundary:
			seen["WordBoundary"] = true
		case bc.OpKetRMax, bc.OpKetRMin, bc.OpBraZero, bc.OpBraMinZero, bc.OpRepeat, bc.OpMinRepeat:
			seen["Quantifiers"] = true
		case bc.OpMark, bc.OpPrune, bc.OpSkip, bc.OpThen, bc.OpCommit, bc.OpFail, bc.OpAccept:
			seen["Verbs"] = true
		}
		if _, kind, ok := bc.RepeatOf(op); ok {
			seen["Quantifiers"] = true
			if kind.Possessive() {
				seen["Possessive"] = true
			}
		}
	}
	if len(p.Names) > 0 {
		seen["NamedGroups"] = true
	}
	if utf {
		seen["UTF"] = true
	}

	labels := make([]string, 0, len(seen)+1)
	for l := range seen {
		labels = append(labels, l)
	}
	if len(labels) == 0 {
		labels = append(labels, "Simple")
	}
	sort.Strings(labels)
	return labels
}

func deriveHintLabels(p *Program) []string {
	var labels []string
	if p.Anchored {
		labels = append(labels, "Anchored")
	}
	if p.StartLine {
		labels = append(labels, "StartLine")
	}
	switch p.FirstChar.Kind {
	case FirstLiteral:
		labels = append(labels, "FirstLiteral")
	case FirstSet:
		labels = append(labels, "FirstSet")
	}
	if p.RequiredChar.Known {
		labels = append(labels, "RequiredChar")
	}
	sort.Strings(labels)
	return labels
}
