// Package webdriver implementa os colaboradores de automação de navegador
// (portal de consumo e interface administrativa do roteador) via WebDriver.
package webdriver

import (
	"fmt"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// pageSettle é a espera após navegações que disparam carregamento assíncrono.
const pageSettle = 2 * time.Second

type Config struct {
	ChromeDriverPath string
	Port             int
}

// Driver gerencia o processo chromedriver compartilhado pelos adaptadores.
type Driver struct {
	service *selenium.Service
	addr    string
}

// Start sobe o chromedriver como subprocesso na porta configurada.
func Start(cfg Config) (*Driver, error) {
	if cfg.ChromeDriverPath == "" {
		return nil, fmt.Errorf("chromedriver path is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("chromedriver port must be positive")
	}

	service, err := selenium.NewChromeDriverService(cfg.ChromeDriverPath, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	return &Driver{
		service: service,
		addr:    fmt.Sprintf("http://localhost:%d/wd/hub", cfg.Port),
	}, nil
}

func (d *Driver) Stop() error {
	return d.service.Stop()
}

// newSession abre uma sessão headless do Chrome contra o chromedriver.
func (d *Driver) newSession() (selenium.WebDriver, error) {
	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{Args: []string{
		"--headless=new",
		"--no-sandbox",
		"--disable-dev-shm-usage",
	}})

	wd, err := selenium.NewRemote(caps, d.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open a browser session: %w", err)
	}
	return wd, nil
}
