// Package services implementa a lógica central de rotação de identidades PPPoE.
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/ports"
)

// Config agrega o pool de identidades e os limites avaliados pelo serviço.
type Config struct {
	Candidates domain.CandidateSet
	Thresholds domain.Thresholds
}

// Collaborators reúne as portas externas consumidas pelo serviço.
type Collaborators struct {
	Probe     ports.UsageProbe
	Inspector ports.IdentityInspector
	Switcher  ports.IdentitySwitcher
	Notifier  ports.Notifier
	Recorder  ports.CycleRecorder // opcional
}

// RotationService implementa o motor de decisão de rotação.
type RotationService struct {
	collab Collaborators
	config Config
}

// NewRotationService cria uma nova instância do serviço.
func NewRotationService(collab Collaborators, cfg Config) (*RotationService, error) {
	if collab.Probe == nil {
		return nil, fmt.Errorf("usage probe is required")
	}
	if collab.Inspector == nil {
		return nil, fmt.Errorf("identity inspector is required")
	}
	if collab.Switcher == nil {
		return nil, fmt.Errorf("identity switcher is required")
	}
	if collab.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if len(cfg.Candidates) == 0 {
		return nil, fmt.Errorf("candidate set must not be empty")
	}
	if cfg.Thresholds.Switch <= 0 || cfg.Thresholds.Available <= 0 || cfg.Thresholds.Disable <= 0 {
		return nil, fmt.Errorf("thresholds must have positive values")
	}
	if cfg.Thresholds.Disable <= cfg.Thresholds.Switch {
		return nil, fmt.Errorf("disable threshold must be greater than switch threshold")
	}

	return &RotationService{collab: collab, config: cfg}, nil
}

// RunCycle executa um ciclo completo: inspeção, sonda, decisão e execução.
// Falhas de troca são notificadas ao usuário e não derrubam o ciclo; apenas
// a sonda da identidade ativa e a inspeção propagam erro ao chamador.
func (s *RotationService) RunCycle(ctx context.Context) (domain.Decision, error) {
	cycleID := uuid.NewString()
	startedAt := time.Now()

	activeName, err := s.collab.Inspector.ActiveIdentity(ctx)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("failed to inspect active identity: %w", err)
	}
	log.Printf("cycle %s: router reports active identity %q", cycleID, activeName)

	decision, err := s.Decide(ctx, activeName)
	if err != nil {
		return domain.Decision{}, err
	}

	execErr := s.execute(ctx, decision)
	s.record(ctx, cycleID, startedAt, decision, execErr)
	return decision, nil
}

// Decide avalia o uso da identidade ativa e escolhe a ação do ciclo.
func (s *RotationService) Decide(ctx context.Context, activeName string) (domain.Decision, error) {
	index := s.config.Candidates.IndexOf(activeName)
	if index < 0 {
		// O roteador pode reportar uma identidade fora do pool configurado;
		// o ciclo vira um no-op, não um erro.
		log.Printf("active identity %q is not in the candidate pool, nothing to do", activeName)
		return domain.Decision{Action: domain.ActionNone}, nil
	}

	active := s.config.Candidates[index]
	reading, err := s.collab.Probe.Probe(ctx, active)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %v", domain.ErrActiveProbe, err)
	}

	decision := domain.Decision{
		Active:      active,
		ActiveUsage: reading.Minutes,
		ActiveKnown: true,
	}

	if reading.Minutes <= s.config.Thresholds.Switch {
		decision.Action = domain.ActionNone
		return decision, nil
	}

	log.Printf("usage for %q exceeded the switch threshold (%d > %d minutes), searching for a replacement",
		active.Name, reading.Minutes, s.config.Thresholds.Switch)

	if target, ok := s.findAvailable(ctx, index); ok {
		decision.Action = domain.ActionSwitch
		decision.Target = target
		return decision, nil
	}

	if reading.Minutes > s.config.Thresholds.Disable {
		decision.Action = domain.ActionDisable
	} else {
		decision.Action = domain.ActionExhausted
	}
	return decision, nil
}

// findAvailable percorre o pool em ordem cíclica a partir da posição seguinte
// à ativa, excluindo a própria ativa. A primeira identidade com uso dentro do
// limite vence; não há busca pela menos usada globalmente.
func (s *RotationService) findAvailable(ctx context.Context, activeIndex int) (domain.Identity, bool) {
	candidates := s.config.Candidates
	for offset := 1; offset < len(candidates); offset++ {
		candidate := candidates[(activeIndex+offset)%len(candidates)]

		reading, err := s.collab.Probe.Probe(ctx, candidate)
		if err != nil {
			// Falha em sonda secundária não aborta o ciclo; o candidato é
			// tratado como indisponível.
			log.Printf("failed to probe %q, skipping: %v", candidate.Name, err)
			continue
		}

		if reading.Minutes <= s.config.Thresholds.Available {
			log.Printf("%q is available (%d minutes)", candidate.Name, reading.Minutes)
			return candidate, true
		}
		log.Printf("%q also exceeded the limit (%d minutes)", candidate.Name, reading.Minutes)
	}
	return domain.Identity{}, false
}

func (s *RotationService) execute(ctx context.Context, decision domain.Decision) error {
	switch decision.Action {
	case domain.ActionNone:
		if !decision.ActiveKnown {
			return nil
		}
		s.notify("WiFi Status OK",
			fmt.Sprintf("Current ID: %q\nUsage: %d minutes (within limit)", decision.Active.Name, decision.ActiveUsage))
		return nil
	case domain.ActionSwitch:
		return s.executeSwitch(ctx, decision)
	case domain.ActionDisable:
		return s.executeDisable(ctx, decision)
	case domain.ActionExhausted:
		s.notify("No WiFi IDs Available",
			fmt.Sprintf("All PPPoE IDs exceeded the %d minute limit.\nCurrent ID: %q - %d minutes",
				s.config.Thresholds.Available, decision.Active.Name, decision.ActiveUsage))
		return nil
	}
	return nil
}

func (s *RotationService) executeSwitch(ctx context.Context, decision domain.Decision) error {
	result, err := s.collab.Switcher.Apply(ctx, decision.Target)
	switch result {
	case domain.ApplyAccepted:
		log.Printf("switched from %q to %q", decision.Active.Name, decision.Target.Name)
		s.notify("WiFi ID Switched",
			fmt.Sprintf("Switched from %q to %q\nOld usage: %d minutes",
				decision.Active.Name, decision.Target.Name, decision.ActiveUsage))
		return nil
	case domain.ApplyRejected:
		s.notify("WiFi Switch Failed",
			fmt.Sprintf("Router rejected the switch from %q to %q", decision.Active.Name, decision.Target.Name))
		return fmt.Errorf("router rejected the switch to %q", decision.Target.Name)
	default:
		s.notify("WiFi Switch Error",
			fmt.Sprintf("Error switching from %q to %q: %v", decision.Active.Name, decision.Target.Name, err))
		return fmt.Errorf("failed to apply identity %q: %w", decision.Target.Name, err)
	}
}

func (s *RotationService) executeDisable(ctx context.Context, decision domain.Decision) error {
	disabled := domain.Identity{Name: decision.Active.Name, Secret: domain.DisabledSecret}

	result, err := s.collab.Switcher.Apply(ctx, disabled)
	if result == domain.ApplyAccepted && err == nil {
		log.Printf("connection disabled for %q", decision.Active.Name)
		s.notify("PPPoE Connection Disabled",
			fmt.Sprintf("All IDs exceeded the %d min limit.\nCurrent ID %q has %d minutes (>%d).\nConnection disabled to prevent charges.",
				s.config.Thresholds.Available, decision.Active.Name, decision.ActiveUsage, s.config.Thresholds.Disable))
		return nil
	}

	s.notify("Failed to Disable PPPoE",
		fmt.Sprintf("All IDs exceeded the limit but the connection could not be disabled.\nCurrent usage: %d minutes", decision.ActiveUsage))
	if err != nil {
		return fmt.Errorf("failed to disable the connection: %w", err)
	}
	return fmt.Errorf("router rejected the disable request for %q", decision.Active.Name)
}

func (s *RotationService) notify(title, body string) {
	if err := s.collab.Notifier.Notify(title, body); err != nil {
		log.Printf("failed to send notification %q: %v", title, err)
	}
}

func (s *RotationService) record(ctx context.Context, cycleID string, startedAt time.Time, decision domain.Decision, execErr error) {
	if s.collab.Recorder == nil {
		return
	}

	rec := domain.CycleRecord{
		CycleID:     cycleID,
		StartedAt:   startedAt,
		Active:      decision.Active.Name,
		ActiveUsage: decision.ActiveUsage,
		Action:      decision.Action,
		Target:      decision.Target.Name,
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}

	if err := s.collab.Recorder.Record(ctx, rec); err != nil {
		log.Printf("failed to record cycle %s: %v", cycleID, err)
	}
}
