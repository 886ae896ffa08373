// Package classify decides why an MLOps-relevant change happened in a
// commit, based purely on the set of changed file paths. The result is one
// of Data, Script, Both or None.
package classify

// Cause is the classification of a commit's MLOps-relevant change.
type Cause string

const (
	CauseData   Cause = "Data"
	CauseScript Cause = "Script"
	CauseBoth   Cause = "Both"
	CauseNone   Cause = "None"
)

// Relevant reports whether the cause indicates an MLOps-relevant change.
func (c Cause) Relevant() bool {
	return c == CauseData || c == CauseScript || c == CauseBoth
}

// Result is the per-run classification outcome. It is consumed immediately
// to build a ledger record and then discarded.
type Result struct {
	DataChanged   bool
	ScriptChanged bool
	Cause         Cause
}

// Classify evaluates the rule set over a changed-path set. Evaluation is
// order-independent: each path is normalized and tested against every rule,
// and the two hit flags are combined with the fixed tie-break (Both when
// both hit, else the single hit, else None).
func Classify(changedPaths []string, rules RuleSet) Result {
	var res Result
	for _, p := range changedPaths {
		np := NormalizePath(p)
		if np == "" {
			continue
		}
		if rules.matchData(np) {
			res.DataChanged = true
		}
		if rules.matchScript(np) {
			res.ScriptChanged = true
		}
		if res.DataChanged && res.ScriptChanged {
			break
		}
	}

	switch {
	case res.DataChanged && res.ScriptChanged:
		res.Cause = CauseBoth
	case res.DataChanged:
		res.Cause = CauseData
	case res.ScriptChanged:
		res.Cause = CauseScript
	default:
		res.Cause = CauseNone
	}
	return res
}
