// Package params turns HTTP query parameters and CLI flags into calculation
// settings.
package params

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/akawula/fourkeys/fourkeys"
)

// Parameter names shared by the HTTP API and the CLI.
const (
	Period                 = "period"
	DeploymentMethod       = "deploymentMethod"
	WorkflowName           = "workflowName"
	WorkflowFile           = "workflowFile"
	TagPrefix              = "tagPrefix"
	TagPattern             = "tagPattern"
	IssueLabels            = "issueLabels"
	PRLabels               = "prLabels"
	PRBranchPattern        = "prBranchPattern"
	DetectWorkflowFailures = "detectWorkflowFailures"
)

// Defaults apply to every parameter left unset.
type Defaults struct {
	Period     fourkeys.Period
	Deployment fourkeys.DeploymentConfig
	Failure    fourkeys.FailureConfig
}

type Request struct {
	Period     fourkeys.Period
	Deployment fourkeys.DeploymentConfig
	Failure    fourkeys.FailureConfig
}

// Parse overlays q on d and validates the result. Errors wrap
// fourkeys.ErrInvalidConfiguration.
func Parse(q url.Values, d Defaults) (Request, error) {
	req := Request{
		Period:     d.Period,
		Deployment: d.Deployment,
		Failure:    d.Failure.Clone(),
	}
	if req.Period == "" {
		req.Period = fourkeys.PeriodMonth
	}
	if req.Deployment.Method == "" {
		req.Deployment.Method = fourkeys.DeploymentMethodRelease
	}

	if v, ok := lookup(q, Period); ok {
		p, err := fourkeys.ParsePeriod(v)
		if err != nil {
			return Request{}, err
		}
		req.Period = p
	}
	if v, ok := lookup(q, DeploymentMethod); ok {
		m, err := fourkeys.ParseDeploymentMethod(v)
		if err != nil {
			return Request{}, err
		}
		req.Deployment.Method = m
	}
	override(q, WorkflowName, &req.Deployment.WorkflowName)
	override(q, WorkflowFile, &req.Deployment.WorkflowFile)
	override(q, TagPrefix, &req.Deployment.TagPrefix)
	override(q, TagPattern, &req.Deployment.TagPattern)

	if labels, ok := list(q, IssueLabels); ok {
		req.Failure.IssueLabels = labels
	}
	if labels, ok := list(q, PRLabels); ok {
		req.Failure.PRLabels = labels
	}
	override(q, PRBranchPattern, &req.Failure.PRBranchPattern)
	if v, ok := lookup(q, DetectWorkflowFailures); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %s %q is not a boolean", fourkeys.ErrInvalidConfiguration, DetectWorkflowFailures, v)
		}
		req.Failure.DetectWorkflowFailures = b
	}

	if err := req.Deployment.Validate(); err != nil {
		return Request{}, err
	}
	if err := req.Failure.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func lookup(q url.Values, key string) (string, bool) {
	if !q.Has(key) {
		return "", false
	}
	return strings.TrimSpace(q.Get(key)), true
}

func override(q url.Values, key string, dst *string) {
	if v, ok := lookup(q, key); ok {
		*dst = v
	}
}

// list accepts repeated keys and comma separated values alike.
func list(q url.Values, key string) ([]string, bool) {
	if !q.Has(key) {
		return nil, false
	}
	out := []string{}
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, true
}
