// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import "context"

type IdentityInspector interface {
	ActiveIdentity(ctx context.Context) (string, error)
}
