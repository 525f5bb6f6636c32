// Package ports define contratos que conectam o domínio a implementações externas.
package ports

type Notifier interface {
	Notify(title, body string) error
}
