package pipeline

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StatusPass StageStatus = "pass"
	StatusFail StageStatus = "fail"
	StatusSkip StageStatus = "skip"
)

// Stage names, in execution order.
const (
	StageClassify = "classify"
	StageMetrics  = "metrics"
	StageAppend   = "append"
	StageRender   = "render"
	StagePublish  = "publish"
)

// StageResult is persisted per stage under <state-dir>/stages/<stage>.json.
type StageResult struct {
	Stage  string      `json:"stage"`
	Status StageStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
}

// LastRun summarizes the most recent pipeline execution
// (<state-dir>/last-run.json).
type LastRun struct {
	Status string   `json:"status"` // "pass" or "fail"
	Stages []string `json:"stages"` // ordered list of stages run
	Failed []string `json:"failed"` // stages that failed
}
