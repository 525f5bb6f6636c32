package webdriver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tebeka/selenium"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/ports"
)

// settleAfterSave cobre o tempo que o roteador leva para derrubar e
// restabelecer o enlace PPPoE depois de salvar novas credenciais.
const settleAfterSave = 35 * time.Second

// RouterClient automatiza a interface administrativa do roteador. Cobre as
// duas portas que tocam o roteador: inspeção da identidade ativa e troca.
type RouterClient struct {
	driver        *Driver
	addr          string
	adminPassword string
}

var (
	_ ports.IdentityInspector = (*RouterClient)(nil)
	_ ports.IdentitySwitcher  = (*RouterClient)(nil)
)

func NewRouterClient(driver *Driver, addr, adminPassword string) *RouterClient {
	return &RouterClient{driver: driver, addr: addr, adminPassword: adminPassword}
}

func (r *RouterClient) ActiveIdentity(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wd, err := r.driver.newSession()
	if err != nil {
		return "", err
	}
	defer func() { _ = wd.Quit() }()

	if err := r.openSettings(wd); err != nil {
		return "", err
	}

	nameField, err := wd.FindElement(selenium.ByName, "userName_PPPoE")
	if err != nil {
		return "", fmt.Errorf("PPPoE username field not found: %w", err)
	}

	value, err := nameField.GetAttribute("value")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (r *RouterClient) Apply(ctx context.Context, identity domain.Identity) (domain.ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ApplyErrored, err
	}

	wd, err := r.driver.newSession()
	if err != nil {
		return domain.ApplyErrored, err
	}
	defer func() { _ = wd.Quit() }()

	if err := r.openSettings(wd); err != nil {
		return domain.ApplyErrored, err
	}

	nameField, err := wd.FindElement(selenium.ByName, "userName_PPPoE")
	if err != nil {
		return domain.ApplyErrored, fmt.Errorf("PPPoE username field not found: %w", err)
	}
	secretField, err := wd.FindElement(selenium.ByName, "password_PPPoE")
	if err != nil {
		return domain.ApplyErrored, fmt.Errorf("PPPoE password field not found: %w", err)
	}

	if err := rewriteField(nameField, identity.Name); err != nil {
		return domain.ApplyErrored, err
	}
	if err := rewriteField(secretField, identity.Secret); err != nil {
		return domain.ApplyErrored, err
	}

	saveButton, err := wd.FindElement(selenium.ByID, "Save_btn")
	if err != nil {
		return domain.ApplyErrored, fmt.Errorf("save button not found: %w", err)
	}
	if err := saveButton.Click(); err != nil {
		return domain.ApplyErrored, err
	}

	time.Sleep(settleAfterSave)

	// O roteador recarrega a página de configuração após aplicar; quando o
	// campo ainda mostra a identidade antiga, a troca foi rejeitada.
	applied, err := r.verifyApplied(wd, identity.Name)
	if err != nil {
		return domain.ApplyErrored, err
	}
	if !applied {
		return domain.ApplyRejected, nil
	}
	return domain.ApplyAccepted, nil
}

// openSettings autentica no roteador e abre a página de configuração PPPoE.
func (r *RouterClient) openSettings(wd selenium.WebDriver) error {
	if err := wd.Get(fmt.Sprintf("http://%s/info/Login.html", r.addr)); err != nil {
		return fmt.Errorf("failed to open the router login page: %w", err)
	}

	passwordField, err := wd.FindElement(selenium.ByID, "admin_Password")
	if err != nil {
		return fmt.Errorf("router password field not found: %w", err)
	}
	if err := passwordField.SendKeys(r.adminPassword); err != nil {
		return err
	}

	loginButton, err := wd.FindElement(selenium.ByID, "logIn_btn")
	if err != nil {
		return fmt.Errorf("login button not found: %w", err)
	}
	if err := loginButton.Click(); err != nil {
		return err
	}

	time.Sleep(pageSettle)

	if err := wd.Get(fmt.Sprintf("http://%s/Internet.html", r.addr)); err != nil {
		return fmt.Errorf("failed to open the PPPoE settings page: %w", err)
	}

	time.Sleep(pageSettle)
	return nil
}

func (r *RouterClient) verifyApplied(wd selenium.WebDriver, wantName string) (bool, error) {
	if err := wd.Get(fmt.Sprintf("http://%s/Internet.html", r.addr)); err != nil {
		return false, fmt.Errorf("failed to reload the PPPoE settings page: %w", err)
	}
	time.Sleep(pageSettle)

	nameField, err := wd.FindElement(selenium.ByName, "userName_PPPoE")
	if err != nil {
		return false, fmt.Errorf("PPPoE username field not found after save: %w", err)
	}
	value, err := nameField.GetAttribute("value")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(value) == wantName, nil
}

func rewriteField(field selenium.WebElement, value string) error {
	if err := field.Clear(); err != nil {
		return err
	}
	return field.SendKeys(value)
}
