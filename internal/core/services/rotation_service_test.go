package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
)

func testCandidates() domain.CandidateSet {
	return domain.NewCandidateSet(map[string]string{
		"a": "pa",
		"b": "pb",
		"c": "pc",
	})
}

func testThresholds() domain.Thresholds {
	return domain.Thresholds{Switch: 9000, Available: 9000, Disable: 11000}
}

func TestRotation_NoActionBelowThreshold(t *testing.T) {
	probe := newMockProbe(map[string]int{"b": 8500})
	collab, notifier, _ := newMockCollaborators(probe, &mockInspector{name: "b"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionNone {
		t.Fatalf("expected ActionNone, got %s", decision.Action)
	}
	if decision.ActiveUsage != 8500 {
		t.Fatalf("expected active usage 8500, got %d", decision.ActiveUsage)
	}

	// Below the switch threshold no secondary probe may run.
	if len(probe.calls) != 1 || probe.calls[0] != "b" {
		t.Fatalf("expected a single probe of the active identity, got %v", probe.calls)
	}
	notifier.assertOnly(t, "WiFi Status OK")
}

func TestRotation_UsageAtThresholdStillNoAction(t *testing.T) {
	probe := newMockProbe(map[string]int{"b": 9000})
	collab, _, _ := newMockCollaborators(probe, &mockInspector{name: "b"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionNone {
		t.Fatalf("expected ActionNone at the threshold boundary, got %s", decision.Action)
	}
}

func TestRotation_SwitchPrefersFirstCandidateInCyclicOrder(t *testing.T) {
	// Scenario: active "b" over the limit, "c" available. "a" sits before "b"
	// in the sequence and must never be probed even though it may be emptier.
	probe := newMockProbe(map[string]int{"a": 100, "b": 9500, "c": 7000})
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "b"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionSwitch {
		t.Fatalf("expected ActionSwitch, got %s", decision.Action)
	}
	if decision.Target.Name != "c" || decision.Target.Secret != "pc" {
		t.Fatalf("expected target c/pc, got %+v", decision.Target)
	}

	if fmt.Sprint(probe.calls) != "[b c]" {
		t.Fatalf("expected probes [b c], got %v", probe.calls)
	}
	if len(switcher.applied) != 1 || switcher.applied[0].Name != "c" {
		t.Fatalf("expected switcher to apply c, got %v", switcher.applied)
	}
	notifier.assertOnly(t, "WiFi ID Switched")
}

func TestRotation_CyclicSearchWrapsAround(t *testing.T) {
	probe := newMockProbe(map[string]int{"c": 9500, "a": 7000})
	collab, _, switcher := newMockCollaborators(probe, &mockInspector{name: "c"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionSwitch {
		t.Fatalf("expected ActionSwitch, got %s", decision.Action)
	}
	if fmt.Sprint(probe.calls) != "[c a]" {
		t.Fatalf("expected the search to wrap to the head of the sequence, got probes %v", probe.calls)
	}
	if len(switcher.applied) != 1 || switcher.applied[0].Name != "a" {
		t.Fatalf("expected switcher to apply a, got %v", switcher.applied)
	}
}

func TestRotation_NoIdentityAvailableLeavesConnectionAlone(t *testing.T) {
	// Scenario: every candidate exceeded the available threshold but the
	// active identity is still under the disable threshold.
	probe := newMockProbe(map[string]int{"a": 9500, "b": 9800, "c": 9700})
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "a"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionExhausted {
		t.Fatalf("expected ActionExhausted, got %s", decision.Action)
	}
	if len(switcher.applied) != 0 {
		t.Fatalf("expected no switch attempt, got %v", switcher.applied)
	}
	notifier.assertOnly(t, "No WiFi IDs Available")
}

func TestRotation_DisablePastDisableThreshold(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 11500, "b": 9800, "c": 9700})
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "a"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionDisable {
		t.Fatalf("expected ActionDisable, got %s", decision.Action)
	}

	if len(switcher.applied) != 1 {
		t.Fatalf("expected one apply call, got %d", len(switcher.applied))
	}
	applied := switcher.applied[0]
	if applied.Name != "a" || applied.Secret != domain.DisabledSecret {
		t.Fatalf("expected the sentinel secret applied to the active identity, got %+v", applied)
	}
	notifier.assertOnly(t, "PPPoE Connection Disabled")
}

func TestRotation_UnknownActiveIdentityIsNoOp(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 100, "b": 100, "c": 100})
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "stranger"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionNone {
		t.Fatalf("expected ActionNone, got %s", decision.Action)
	}
	if decision.ActiveKnown {
		t.Fatalf("expected ActiveKnown=false for an identity outside the pool")
	}
	if len(probe.calls) != 0 {
		t.Fatalf("expected no probes, got %v", probe.calls)
	}
	if len(switcher.applied) != 0 {
		t.Fatalf("expected no switch attempt, got %v", switcher.applied)
	}
	if len(notifier.titles) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.titles)
	}
}

func TestRotation_SecondaryProbeErrorSkipsCandidate(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 9500, "c": 7000})
	probe.errs["b"] = errors.New("portal unreachable")
	collab, _, switcher := newMockCollaborators(probe, &mockInspector{name: "a"})
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("expected the secondary probe failure to be non-fatal, got %v", err)
	}
	if decision.Action != domain.ActionSwitch || decision.Target.Name != "c" {
		t.Fatalf("expected switch to c past the failing candidate, got %+v", decision)
	}
	if len(switcher.applied) != 1 || switcher.applied[0].Name != "c" {
		t.Fatalf("expected switcher to apply c, got %v", switcher.applied)
	}
}

func TestRotation_ActiveProbeErrorAborts(t *testing.T) {
	probe := newMockProbe(nil)
	probe.errs["a"] = errors.New("portal unreachable")
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "a"})
	service := newTestService(t, collab)

	_, err := service.RunCycle(context.Background())
	if err == nil || !domain.IsActiveProbeError(err) {
		t.Fatalf("expected an active-probe error, got %v", err)
	}

	// A fatal probe aborts before any decision: no notification, no switch.
	if len(notifier.titles) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.titles)
	}
	if len(switcher.applied) != 0 {
		t.Fatalf("expected no switch attempt, got %v", switcher.applied)
	}
}

func TestRotation_InspectorErrorAborts(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 100})
	collab, _, _ := newMockCollaborators(probe, &mockInspector{err: errors.New("router offline")})
	service := newTestService(t, collab)

	if _, err := service.RunCycle(context.Background()); err == nil {
		t.Fatalf("expected the inspector failure to abort the cycle")
	}
	if len(probe.calls) != 0 {
		t.Fatalf("expected no probes after an inspector failure, got %v", probe.calls)
	}
}

func TestRotation_SwitchRejectedNotifiesFailure(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 9500, "b": 7000})
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "a"})
	switcher.result = domain.ApplyRejected
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("a rejected switch must not fail the cycle, got %v", err)
	}
	if decision.Action != domain.ActionSwitch {
		t.Fatalf("expected ActionSwitch, got %s", decision.Action)
	}
	notifier.assertOnly(t, "WiFi Switch Failed")
}

func TestRotation_SwitchErrorNotifiesError(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 9500, "b": 7000})
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "a"})
	switcher.result = domain.ApplyErrored
	switcher.err = errors.New("save button not found")
	service := newTestService(t, collab)

	if _, err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("a switch error must not fail the cycle, got %v", err)
	}
	notifier.assertOnly(t, "WiFi Switch Error")
}

func TestRotation_DisableFailureNotifies(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 11500, "b": 9800, "c": 9700})
	collab, notifier, switcher := newMockCollaborators(probe, &mockInspector{name: "a"})
	switcher.result = domain.ApplyRejected
	service := newTestService(t, collab)

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != domain.ActionDisable {
		t.Fatalf("expected ActionDisable, got %s", decision.Action)
	}
	notifier.assertOnly(t, "Failed to Disable PPPoE")
}

func TestRotation_RecorderCapturesOutcome(t *testing.T) {
	probe := newMockProbe(map[string]int{"a": 9500, "b": 7000})
	recorder := &mockRecorder{}
	collab, _, _ := newMockCollaborators(probe, &mockInspector{name: "a"})
	collab.Recorder = recorder
	service := newTestService(t, collab)

	if _, err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recorder.records) != 1 {
		t.Fatalf("expected one cycle record, got %d", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.Action != domain.ActionSwitch || rec.Active != "a" || rec.Target != "b" {
		t.Fatalf("unexpected cycle record: %+v", rec)
	}
	if rec.CycleID == "" {
		t.Fatalf("expected the record to carry a cycle ID")
	}
}

func TestNewRotationService_Validation(t *testing.T) {
	probe := newMockProbe(nil)
	inspector := &mockInspector{name: "a"}
	valid := Collaborators{
		Probe:     probe,
		Inspector: inspector,
		Switcher:  &mockSwitcher{},
		Notifier:  &mockNotifier{},
	}

	cases := []struct {
		name   string
		collab Collaborators
		cfg    Config
	}{
		{
			name:   "missing probe",
			collab: Collaborators{Inspector: inspector, Switcher: &mockSwitcher{}, Notifier: &mockNotifier{}},
			cfg:    Config{Candidates: testCandidates(), Thresholds: testThresholds()},
		},
		{
			name:   "empty candidates",
			collab: valid,
			cfg:    Config{Thresholds: testThresholds()},
		},
		{
			name:   "zero thresholds",
			collab: valid,
			cfg:    Config{Candidates: testCandidates()},
		},
		{
			name:   "disable not above switch",
			collab: valid,
			cfg:    Config{Candidates: testCandidates(), Thresholds: domain.Thresholds{Switch: 9000, Available: 9000, Disable: 9000}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRotationService(tc.collab, tc.cfg); err == nil {
				t.Fatalf("expected a constructor error")
			}
		})
	}
}

// newTestService is a helper that fails the test immediately if creation fails.
func newTestService(t *testing.T, collab Collaborators) *RotationService {
	t.Helper()
	service, err := NewRotationService(collab, Config{
		Candidates: testCandidates(),
		Thresholds: testThresholds(),
	})
	if err != nil {
		t.Fatalf("failed to create rotation service: %v", err)
	}
	return service
}

func newMockCollaborators(probe *mockProbe, inspector *mockInspector) (Collaborators, *mockNotifier, *mockSwitcher) {
	notifier := &mockNotifier{}
	switcher := &mockSwitcher{}
	return Collaborators{
		Probe:     probe,
		Inspector: inspector,
		Switcher:  switcher,
		Notifier:  notifier,
	}, notifier, switcher
}

type mockProbe struct {
	usage map[string]int
	errs  map[string]error
	calls []string
}

func newMockProbe(usage map[string]int) *mockProbe {
	if usage == nil {
		usage = make(map[string]int)
	}
	return &mockProbe{usage: usage, errs: make(map[string]error)}
}

func (m *mockProbe) Probe(_ context.Context, identity domain.Identity) (domain.UsageReading, error) {
	m.calls = append(m.calls, identity.Name)
	if err, ok := m.errs[identity.Name]; ok {
		return domain.UsageReading{}, err
	}
	minutes, ok := m.usage[identity.Name]
	if !ok {
		return domain.UsageReading{}, fmt.Errorf("no usage configured for %s", identity.Name)
	}
	return domain.UsageReading{Identity: identity.Name, Minutes: minutes}, nil
}

type mockInspector struct {
	name string
	err  error
}

func (m *mockInspector) ActiveIdentity(_ context.Context) (string, error) {
	return m.name, m.err
}

type mockSwitcher struct {
	result  domain.ApplyResult
	err     error
	applied []domain.Identity
}

func (m *mockSwitcher) Apply(_ context.Context, identity domain.Identity) (domain.ApplyResult, error) {
	m.applied = append(m.applied, identity)
	return m.result, m.err
}

type mockNotifier struct {
	titles []string
	bodies []string
}

func (m *mockNotifier) Notify(title, body string) error {
	m.titles = append(m.titles, title)
	m.bodies = append(m.bodies, body)
	return nil
}

// assertOnly verifies exactly one notification was sent with the given title.
func (m *mockNotifier) assertOnly(t *testing.T, title string) {
	t.Helper()
	if len(m.titles) != 1 {
		t.Fatalf("expected exactly one notification, got %v", m.titles)
	}
	if m.titles[0] != title {
		t.Fatalf("expected notification %q, got %q", title, m.titles[0])
	}
}

type mockRecorder struct {
	records []domain.CycleRecord
}

func (m *mockRecorder) Record(_ context.Context, record domain.CycleRecord) error {
	m.records = append(m.records, record)
	return nil
}
