// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
)

type UsageProbe interface {
	Probe(ctx context.Context, identity domain.Identity) (domain.UsageReading, error)
}
