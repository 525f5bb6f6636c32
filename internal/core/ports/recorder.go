// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
)

type CycleRecorder interface {
	Record(ctx context.Context, record domain.CycleRecord) error
}
