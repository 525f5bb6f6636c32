package webdriver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tebeka/selenium"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/ports"
)

// PortalProbe mede o consumo acumulado de uma identidade autenticando no
// portal do provedor e lendo a linha "Total Use:".
type PortalProbe struct {
	driver   *Driver
	loginURL string
}

var _ ports.UsageProbe = (*PortalProbe)(nil)

func NewPortalProbe(driver *Driver, loginURL string) *PortalProbe {
	return &PortalProbe{driver: driver, loginURL: loginURL}
}

func (p *PortalProbe) Probe(ctx context.Context, identity domain.Identity) (domain.UsageReading, error) {
	if err := ctx.Err(); err != nil {
		return domain.UsageReading{}, err
	}

	wd, err := p.driver.newSession()
	if err != nil {
		return domain.UsageReading{}, err
	}
	defer func() { _ = wd.Quit() }()

	if err := wd.Get(p.loginURL); err != nil {
		return domain.UsageReading{}, fmt.Errorf("failed to open the usage portal: %w", err)
	}

	usernameField, err := wd.FindElement(selenium.ByName, "username")
	if err != nil {
		return domain.UsageReading{}, fmt.Errorf("username field not found: %w", err)
	}
	passwordField, err := wd.FindElement(selenium.ByName, "password")
	if err != nil {
		return domain.UsageReading{}, fmt.Errorf("password field not found: %w", err)
	}

	if err := usernameField.SendKeys(identity.Name); err != nil {
		return domain.UsageReading{}, err
	}
	if err := passwordField.SendKeys(identity.Secret); err != nil {
		return domain.UsageReading{}, err
	}

	if err := submitLogin(wd, passwordField); err != nil {
		return domain.UsageReading{}, err
	}

	time.Sleep(pageSettle)

	cell, err := wd.FindElement(selenium.ByXPATH,
		"//td[contains(text(), 'Total Use:')]/following-sibling::td[1]")
	if err != nil {
		return domain.UsageReading{}, fmt.Errorf("total use cell not found: %w", err)
	}

	text, err := cell.Text()
	if err != nil {
		return domain.UsageReading{}, err
	}

	minutes, err := parseMinutes(text)
	if err != nil {
		return domain.UsageReading{}, err
	}

	return domain.UsageReading{Identity: identity.Name, Minutes: minutes}, nil
}

// submitLogin clica no botão de envio quando existe; alguns portais não o
// renderizam e aceitam Enter no campo de senha.
func submitLogin(wd selenium.WebDriver, passwordField selenium.WebElement) error {
	button, err := wd.FindElement(selenium.ByCSSSelector, "button[type='submit'], input[type='submit']")
	if err == nil {
		if clickErr := button.Click(); clickErr == nil {
			return nil
		}
	}
	return passwordField.SendKeys(selenium.EnterKey)
}

// parseMinutes extrai o valor inteiro de textos como "3,577 Minute".
func parseMinutes(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("could not parse total use value: %q", text)
	}

	amount := strings.ReplaceAll(fields[0], ",", "")
	minutes, err := strconv.Atoi(amount)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	if minutes < 0 {
		return 0, fmt.Errorf("total use must not be negative: %d", minutes)
	}
	return minutes, nil
}
