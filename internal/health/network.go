package health

import (
	"context"

	"github.com/wangwenjie1314/sentinel/internal/collab"
)

// Score impacts for network findings.
const (
	networkErrorImpact      = 15
	networkDisabledImpact   = 3
	networkDisconnectImpact = 5
)

// NetworkProbe inspects the externally supplied connectivity state.
type NetworkProbe struct {
	source collab.ConnectivitySource
}

// NewNetworkProbe creates a network probe over source.
func NewNetworkProbe(source collab.ConnectivitySource) *NetworkProbe {
	return &NetworkProbe{source: source}
}

// Name implements Probe.
func (p *NetworkProbe) Name() string { return "network" }

// Check implements Probe.
func (p *NetworkProbe) Check(_ context.Context) Result {
	result := newResult(p.Name())

	status := p.source.Status()
	result.Metrics["connectivity"] = string(status)

	switch status {
	case collab.ConnectivityError:
		result.addCritical(IssueNetworkFailure,
			"network collaborator reports an error state", networkErrorImpact)
	case collab.ConnectivityDisabled:
		result.addWarning(IssueNetworkFailure,
			"network is disabled", networkDisabledImpact)
	case collab.ConnectivityUnexpectedDisconnect:
		result.addWarning(IssueNetworkFailure,
			"network disconnected unexpectedly", networkDisconnectImpact)
	}

	return result
}
