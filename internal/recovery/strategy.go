// Package recovery maps detected problems to repair strategies and runs
// them sequentially with a verification and single-escalation pass.
package recovery

import (
	"context"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/faults"
	"github.com/wangwenjie1314/sentinel/internal/health"
)

// Type identifies a recovery strategy.
type Type string

const (
	TypeComponentReset   Type = "component_reset"
	TypeCacheCleanup     Type = "cache_cleanup"
	TypePreferencesReset Type = "preferences_reset"
	TypeNetworkReset     Type = "network_reset"
)

// Strategy is one idempotent repair action. A strategy declares the
// recovery types it handles via CanHandle.
type Strategy interface {
	Name() Type
	CanHandle(t Type) bool
	Execute(ctx context.Context) error
}

// ComponentResetStrategy resets all managed components.
type ComponentResetStrategy struct {
	Controller collab.ComponentController
}

func (s *ComponentResetStrategy) Name() Type { return TypeComponentReset }

func (s *ComponentResetStrategy) CanHandle(t Type) bool { return t == TypeComponentReset }

func (s *ComponentResetStrategy) Execute(ctx context.Context) error {
	return s.Controller.ResetAll(ctx)
}

// CacheCleanupStrategy purges application caches.
type CacheCleanupStrategy struct {
	Cache collab.CacheManager
}

func (s *CacheCleanupStrategy) Name() Type { return TypeCacheCleanup }

func (s *CacheCleanupStrategy) CanHandle(t Type) bool { return t == TypeCacheCleanup }

func (s *CacheCleanupStrategy) Execute(ctx context.Context) error {
	return s.Cache.PurgeAll(ctx)
}

// PreferencesResetStrategy restores preferences to their defaults.
type PreferencesResetStrategy struct {
	Store collab.PreferencesStore
}

func (s *PreferencesResetStrategy) Name() Type { return TypePreferencesReset }

func (s *PreferencesResetStrategy) CanHandle(t Type) bool { return t == TypePreferencesReset }

func (s *PreferencesResetStrategy) Execute(ctx context.Context) error {
	return s.Store.Reset(ctx)
}

// NetworkResetStrategy restarts the application's network stack.
type NetworkResetStrategy struct {
	Network collab.NetworkController
}

func (s *NetworkResetStrategy) Name() Type { return TypeNetworkReset }

func (s *NetworkResetStrategy) CanHandle(t Type) bool { return t == TypeNetworkReset }

func (s *NetworkResetStrategy) Execute(ctx context.Context) error {
	return s.Network.Restart(ctx)
}

var issueStrategies = map[health.IssueType][]Type{
	health.IssueMemoryLeak:         {TypeCacheCleanup},
	health.IssueComponentFailure:   {TypeComponentReset},
	health.IssueResourceExhaustion: {TypeCacheCleanup, TypeComponentReset},
	health.IssueNetworkFailure:     {TypeNetworkReset},
}

var causeStrategies = map[faults.Cause][]Type{
	faults.CauseMemoryCorruption:      {TypeComponentReset, TypeCacheCleanup},
	faults.CauseAssertionFailure:      {TypeComponentReset},
	faults.CauseUnhandledException:    {TypeComponentReset},
	faults.CauseNetworkFrameworkError: {TypeNetworkReset},
	faults.CauseUIFrameworkError:      {TypeComponentReset},
	faults.CausePreferencesCorruption: {TypePreferencesReset},
	faults.CauseArithmeticError:       {TypeComponentReset},
	faults.CauseUnknownSignal:         {TypeComponentReset, TypeCacheCleanup},
}

// TypesForIssues maps detected health issues to the strategy types that
// address them, deduplicated in encounter order.
func TypesForIssues(issues []health.Issue) []Type {
	var out []Type
	seen := make(map[Type]bool)
	for _, issue := range issues {
		for _, t := range issueStrategies[issue.Type] {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// TypesForCauses maps classified fault causes to the strategy types that
// address them, deduplicated in encounter order.
func TypesForCauses(causes []faults.Cause) []Type {
	var out []Type
	seen := make(map[Type]bool)
	for _, c := range causes {
		for _, t := range causeStrategies[c] {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
