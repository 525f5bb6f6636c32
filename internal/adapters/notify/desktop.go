// Package notify entrega notificações de desktop para o usuário.
package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/ports"
)

const appName = "Auto WiFi Manager"

type DesktopNotifier struct{}

var _ ports.Notifier = (*DesktopNotifier)(nil)

func NewDesktopNotifier() *DesktopNotifier {
	beeep.AppName = appName
	return &DesktopNotifier{}
}

func (n *DesktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}
