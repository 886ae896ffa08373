package classify

import (
	"path"
	"strings"
)

// manifestNames are dependency/environment files that imply a script-side
// change regardless of where they live in the tree.
var manifestNames = map[string]bool{
	"MLproject":        true,
	"pipeline.json":    true,
	"conda.yaml":       true,
	"conda.yml":        true,
	"environment.yml":  true,
	"environment.yaml": true,
	"requirements.txt": true,
}

// Rule matches a single normalized repo-relative path.
type Rule interface {
	Match(p string) bool
}

// PrefixRule matches any path at or under a directory prefix.
type PrefixRule struct {
	Prefix string
}

func (r PrefixRule) Match(p string) bool {
	pre := strings.TrimSuffix(NormalizePath(r.Prefix), "/")
	if pre == "" {
		return false
	}
	return p == pre || strings.HasPrefix(p, pre+"/")
}

// PatternRule matches a path against a path.Match glob. A pattern naming a
// directory (trailing slash or no glob metacharacters and no extension) also
// matches everything under it.
type PatternRule struct {
	Pattern string
}

func (r PatternRule) Match(p string) bool {
	pat := NormalizePath(r.Pattern)
	if pat == "" {
		return false
	}
	if ok, err := path.Match(pat, p); err == nil && ok {
		return true
	}
	// A literal pattern like "src/train.py" also claims its directory, so
	// helper files next to the training script count as script changes.
	if !strings.ContainsAny(pat, "*?[") {
		if dir := path.Dir(pat); dir != "." && dir != "/" {
			if p == dir || strings.HasPrefix(p, dir+"/") {
				return true
			}
		}
	}
	return false
}

// topLevelScriptRule matches direct top-level script files (train.py, run.sh).
type topLevelScriptRule struct{}

func (topLevelScriptRule) Match(p string) bool {
	if strings.Contains(p, "/") {
		return false
	}
	return strings.HasSuffix(p, ".py") || strings.HasSuffix(p, ".sh")
}

// manifestRule matches environment/dependency manifests by basename.
type manifestRule struct{}

func (manifestRule) Match(p string) bool {
	return manifestNames[path.Base(p)]
}

// RuleSet is the declarative rule table evaluated per changed path.
type RuleSet struct {
	Data   []Rule
	Script []Rule
}

// NewRuleSet builds the standard rule table from the two configured inputs:
// a data-path prefix and a script-path pattern. The script side always
// includes the manifest and top-level script rules.
func NewRuleSet(dataPrefix, scriptPattern string) RuleSet {
	rs := RuleSet{}
	if dataPrefix != "" {
		rs.Data = append(rs.Data, PrefixRule{Prefix: dataPrefix})
	}
	if scriptPattern != "" {
		rs.Script = append(rs.Script, PatternRule{Pattern: scriptPattern})
	}
	rs.Script = append(rs.Script, manifestRule{}, topLevelScriptRule{})
	return rs
}

func (rs RuleSet) matchData(p string) bool {
	for _, r := range rs.Data {
		if r.Match(p) {
			return true
		}
	}
	return false
}

func (rs RuleSet) matchScript(p string) bool {
	for _, r := range rs.Script {
		if r.Match(p) {
			return true
		}
	}
	return false
}

// NormalizePath makes a changed path comparable with repo-relative rule
// inputs: forward slashes only, no leading "./", and "../<dir>/" prefixes
// collapsed to the path inside that directory.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if strings.HasPrefix(p, "../") {
		parts := make([]string, 0, 8)
		for _, seg := range strings.Split(p, "/") {
			if seg != "" {
				parts = append(parts, seg)
			}
		}
		// ../<dir>/rest -> rest
		if len(parts) >= 3 && parts[0] == ".." {
			p = strings.Join(parts[2:], "/")
		}
	}
	return strings.Trim(p, "/")
}
