package fourkeys

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// DeploymentMethod selects how deployments are recognised.
type DeploymentMethod string

const (
	// DeploymentMethodWorkflow counts successful GitHub Actions runs.
	DeploymentMethodWorkflow DeploymentMethod = "workflow"
	// DeploymentMethodRelease counts published, non-draft, non-prerelease releases.
	DeploymentMethodRelease DeploymentMethod = "release"
	// DeploymentMethodTag counts tags, dated by their commit.
	DeploymentMethodTag DeploymentMethod = "tag"
)

// ParseDeploymentMethod converts s into a DeploymentMethod.
func ParseDeploymentMethod(s string) (DeploymentMethod, error) {
	switch m := DeploymentMethod(s); m {
	case DeploymentMethodWorkflow, DeploymentMethodRelease, DeploymentMethodTag:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown deployment method %q", ErrInvalidConfiguration, s)
}

// DeploymentConfig describes where deployments come from. Only the fields of
// the active Method are read.
type DeploymentConfig struct {
	Method DeploymentMethod `json:"method" yaml:"method"`

	// Workflow method: exact workflow name, or a substring of the workflow
	// file path. Both empty means runs of every workflow count.
	WorkflowName string `json:"workflowName,omitempty" yaml:"workflow_name"`
	WorkflowFile string `json:"workflowFile,omitempty" yaml:"workflow_file"`

	// Tag method: optional prefix, then optional regular expression.
	TagPrefix  string `json:"tagPrefix,omitempty" yaml:"tag_prefix"`
	TagPattern string `json:"tagPattern,omitempty" yaml:"tag_pattern"`
}

// Validate checks the method and compiles the tag pattern.
func (c DeploymentConfig) Validate() error {
	if _, err := ParseDeploymentMethod(string(c.Method)); err != nil {
		return err
	}
	if _, err := compileOptional("tag pattern", c.TagPattern); err != nil {
		return err
	}
	return nil
}

// FailureConfig selects the failure signals. Every active signal contributes
// to the result.
type FailureConfig struct {
	IssueLabels            []string `json:"issueLabels,omitempty" yaml:"issue_labels"`
	PRLabels               []string `json:"prLabels,omitempty" yaml:"pr_labels"`
	PRBranchPattern        string   `json:"prBranchPattern,omitempty" yaml:"pr_branch_pattern"`
	DetectWorkflowFailures bool     `json:"detectWorkflowFailures,omitempty" yaml:"detect_workflow_failures"`
}

// Validate compiles the branch pattern.
func (c FailureConfig) Validate() error {
	_, err := compileOptional("PR branch pattern", c.PRBranchPattern)
	return err
}

// Clone returns a copy that shares no slices with c.
func (c FailureConfig) Clone() FailureConfig {
	c.IssueLabels = slices.Clone(c.IssueLabels)
	c.PRLabels = slices.Clone(c.PRLabels)
	return c
}

func (c FailureConfig) detectsHotfixPRs() bool {
	return len(c.PRLabels) > 0 || c.PRBranchPattern != ""
}

func (c FailureConfig) detectsIncidentIssues() bool {
	return len(c.IssueLabels) > 0
}

func compileOptional(what, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidConfiguration, what, pattern, err)
	}
	return re, nil
}

// labelSet holds lower-cased label names.
type labelSet map[string]struct{}

func newLabelSet(labels []string) labelSet {
	set := make(labelSet, len(labels))
	for _, l := range labels {
		set[strings.ToLower(l)] = struct{}{}
	}
	return set
}

func (s labelSet) matchesAny(labels []string) bool {
	for _, l := range labels {
		if _, ok := s[strings.ToLower(l)]; ok {
			return true
		}
	}
	return false
}
