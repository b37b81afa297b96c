package otel

import (
	"context"
	"errors"
	"fmt"

	bankguard "github.com/darvenko/bankguard"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is an exported constant or variable used by the security engine.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is an exported constant or variable used by the security engine.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() bankguard.MetricsSnapshot
}

type counterDef struct {
	ID   bankguard.MetricID
	Name string
	Help string
}

var counterDefs = []counterDef{
	{bankguard.MetricLoginSuccess, "bankguard_login_success_total", "Successful authentications."},
	{bankguard.MetricLoginFailure, "bankguard_login_failure_total", "Failed authentications."},
	{bankguard.MetricLoginRateLimited, "bankguard_login_rate_limited_total", "Logins rejected by the attempt budget."},
	{bankguard.MetricMFARequired, "bankguard_mfa_required_total", "Valid credentials awaiting an OTP."},
	{bankguard.MetricMFASuccess, "bankguard_mfa_success_total", "Accepted OTP codes."},
	{bankguard.MetricMFAFailure, "bankguard_mfa_failure_total", "Rejected OTP codes."},
	{bankguard.MetricRefreshSuccess, "bankguard_refresh_success_total", "Successful token refreshes."},
	{bankguard.MetricRefreshFailure, "bankguard_refresh_failure_total", "Failed token refreshes."},
	{bankguard.MetricTokenRevoked, "bankguard_token_revoked_total", "Tokens revoked before expiry."},
	{bankguard.MetricRevokedTokenReplay, "bankguard_revoked_token_replay_total", "Verifications that presented a revoked jti."},
	{bankguard.MetricPermissionAllowed, "bankguard_permission_allowed_total", "Permission checks that resolved to allow."},
	{bankguard.MetricPermissionDenied, "bankguard_permission_denied_total", "Permission checks that resolved to deny."},
	{bankguard.MetricLedgerAppendFailure, "bankguard_ledger_append_failure_total", "Operations failed because the audit append failed."},
}

type observedCounter struct {
	id         bankguard.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter defines a public type used by bankguard APIs.
//
// Exporter instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
}

// NewExporter registers the engine's counters with the given meter.
func NewExporter(meter metric.Meter, engine *bankguard.Engine) (*Exporter, error) {
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource is the seam used by tests: any snapshot source
// substitutes for a full engine.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}

	observables := make([]metric.Observable, 0, len(counterDefs))
	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
