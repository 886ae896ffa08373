package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRules() RuleSet {
	return NewRuleSet("data/", "src/train.py")
}

func TestClassifyDataOnly(t *testing.T) {
	res := Classify([]string{"data/train.csv"}, defaultRules())
	assert.Equal(t, CauseData, res.Cause)
	assert.True(t, res.DataChanged)
	assert.False(t, res.ScriptChanged)
}

func TestClassifyScriptOnly(t *testing.T) {
	res := Classify([]string{"train.py", "conda.yaml"}, defaultRules())
	assert.Equal(t, CauseScript, res.Cause)
}

func TestClassifyBoth(t *testing.T) {
	res := Classify([]string{"data/x.csv", "train.py"}, defaultRules())
	assert.Equal(t, CauseBoth, res.Cause)
}

func TestClassifyNone(t *testing.T) {
	res := Classify([]string{"README.md"}, defaultRules())
	assert.Equal(t, CauseNone, res.Cause)
	assert.False(t, res.Cause.Relevant())
}

func TestClassifyEmptyChangeSet(t *testing.T) {
	res := Classify(nil, defaultRules())
	assert.Equal(t, CauseNone, res.Cause)
}

func TestClassifyOrderIndependent(t *testing.T) {
	paths := []string{"docs/a.md", "data/raw/a.parquet", "src/train.py", "Makefile"}
	want := Classify(paths, defaultRules())
	require.Equal(t, CauseBoth, want.Cause)

	permutations := [][]string{
		{"src/train.py", "docs/a.md", "Makefile", "data/raw/a.parquet"},
		{"Makefile", "src/train.py", "data/raw/a.parquet", "docs/a.md"},
		{"data/raw/a.parquet", "Makefile", "docs/a.md", "src/train.py"},
	}
	for _, perm := range permutations {
		assert.Equal(t, want, Classify(perm, defaultRules()))
	}
}

func TestClassifyManifestAnywhere(t *testing.T) {
	res := Classify([]string{"envs/environment.yml"}, defaultRules())
	assert.Equal(t, CauseScript, res.Cause)
}

func TestClassifyNestedScriptNotTopLevel(t *testing.T) {
	// A .py file outside the configured script path and not at top level is
	// not a script change on its own.
	res := Classify([]string{"notebooks/explore.py"}, NewRuleSet("data/", ""))
	assert.Equal(t, CauseNone, res.Cause)
}

func TestClassifyScriptDirectoryMove(t *testing.T) {
	// Files alongside the configured training script count as script changes.
	res := Classify([]string{"src/utils.py"}, defaultRules())
	assert.Equal(t, CauseScript, res.Cause)
}

func TestClassifyDataPrefixIsNotSubstring(t *testing.T) {
	res := Classify([]string{"database/schema.sql"}, defaultRules())
	assert.Equal(t, CauseNone, res.Cause)
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"./data/a.csv":        "data/a.csv",
		"data\\a.csv":         "data/a.csv",
		"../caller/src/t.py":  "src/t.py",
		"  data/a.csv ":       "data/a.csv",
		"/data/a.csv":         "data/a.csv",
		"../caller/../x":      "../x", // only the first ../<dir>/ pair collapses
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in), "input %q", in)
	}
}

func TestPrefixRuleEmptyNeverMatches(t *testing.T) {
	assert.False(t, PrefixRule{}.Match("data/a.csv"))
}

func TestPatternRuleGlob(t *testing.T) {
	r := PatternRule{Pattern: "pipelines/*.py"}
	assert.True(t, r.Match("pipelines/train.py"))
	assert.True(t, r.Match("pipelines/eval.py"))
}
