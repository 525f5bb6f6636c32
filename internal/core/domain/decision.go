package domain

import "time"

// Action enumera os desfechos possíveis de um ciclo de decisão.
type Action string

const (
	ActionNone      Action = "none"
	ActionSwitch    Action = "switch"
	ActionDisable   Action = "disable"
	ActionExhausted Action = "exhausted"
)

// UsageReading é o consumo acumulado de uma identidade, medido a cada sonda.
type UsageReading struct {
	Identity string
	Minutes  int
}

// Decision é o resultado de um ciclo: a ação escolhida e o contexto que a justificou.
type Decision struct {
	Action      Action
	Active      Identity
	ActiveUsage int
	// ActiveKnown é falso quando o roteador reporta uma identidade fora do pool.
	ActiveKnown bool
	Target      Identity
}

// ApplyResult é o desfecho de três vias de uma tentativa de troca no roteador.
type ApplyResult int

const (
	ApplyAccepted ApplyResult = iota
	ApplyRejected
	ApplyErrored
)

// CycleRecord documenta o desfecho de um ciclo para fins de histórico.
type CycleRecord struct {
	CycleID     string    `json:"cycle_id"`
	StartedAt   time.Time `json:"started_at"`
	Active      string    `json:"active,omitempty"`
	ActiveUsage int       `json:"active_usage"`
	Action      Action    `json:"action"`
	Target      string    `json:"target,omitempty"`
	Error       string    `json:"error,omitempty"`
}
