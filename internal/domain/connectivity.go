package domain

import "strings"

// CheckSpec is one static connectivity check: a logical name and a URL
// template that may embed {key} (the API key) and {project} (the project ID).
type CheckSpec struct {
	Name        string `json:"name" yaml:"name"`
	URLTemplate string `json:"url" yaml:"url"`
}

// NeedsProject reports whether the check is project-scoped, that is whether
// its template embeds {project}.
func (c CheckSpec) NeedsProject() bool {
	return strings.Contains(c.URLTemplate, "{project}")
}

// CheckResult is the immutable outcome of one connectivity check.
type CheckResult struct {
	Name string `json:"apiName"`
	URL  string `json:"url"`

	// StatusCode is the HTTP status, or 0 when the request failed before a
	// response was obtained.
	StatusCode int    `json:"status"`
	StatusText string `json:"statusText"`

	// LatencyMs is the elapsed time rounded to the nearest millisecond.
	LatencyMs int64 `json:"latency"`

	// ResponsePreview is a truncated, pretty-printed body, a placeholder for
	// non-JSON bodies, or the transport error description.
	ResponsePreview string `json:"responsePreview"`

	// IsSuccess reports reachability: any status below 500 except 404.
	// A reachable endpoint that rejected the key still counts.
	IsSuccess bool `json:"isSuccess"`
}
