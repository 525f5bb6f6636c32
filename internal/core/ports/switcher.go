// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
)

type IdentitySwitcher interface {
	Apply(ctx context.Context, identity domain.Identity) (domain.ApplyResult, error)
}
