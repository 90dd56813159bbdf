package health

import (
	"context"
	"fmt"

	"github.com/wangwenjie1314/sentinel/internal/collab"
)

// Score impacts for component findings.
const (
	componentCriticalImpact = 20
	componentWarnImpact     = 8
)

// ComponentProbe polls dependent components' self-reported health.
type ComponentProbe struct {
	source collab.ComponentSource
}

// NewComponentProbe creates a component probe over source.
func NewComponentProbe(source collab.ComponentSource) *ComponentProbe {
	return &ComponentProbe{source: source}
}

// Name implements Probe.
func (p *ComponentProbe) Name() string { return "component" }

// Check implements Probe.
func (p *ComponentProbe) Check(_ context.Context) Result {
	result := newResult(p.Name())

	states := p.source.Components()
	result.Metrics["component_count"] = fmt.Sprintf("%d", len(states))

	for _, state := range states {
		result.Metrics["component_"+state.Name] = string(state.Health)

		switch state.Health {
		case collab.ComponentCritical:
			result.addCritical(IssueComponentFailure,
				fmt.Sprintf("component %q reports critical health", state.Name),
				componentCriticalImpact)
		case collab.ComponentWarning:
			result.addWarning(IssueComponentFailure,
				fmt.Sprintf("component %q reports degraded health", state.Name),
				componentWarnImpact)
		}
	}

	return result
}
