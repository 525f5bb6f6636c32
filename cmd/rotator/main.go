package main

import (
	"context"
	"fmt"
	"log"

	redishistory "github.com/yeadkhail/auto-pppoe-quota-manager/internal/adapters/history/redis"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/adapters/notify"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/adapters/webdriver"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/config"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/ports"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	driver, err := webdriver.Start(webdriver.Config{
		ChromeDriverPath: cfg.ChromeDriver.Path,
		Port:             cfg.ChromeDriver.Port,
	})
	if err != nil {
		log.Fatalf("failed to start chromedriver: %v", err)
	}

	// O chromedriver precisa ser derrubado mesmo quando o ciclo falha, por
	// isso o restante do processo roda fora do main.
	runErr := run(cfg, driver)

	if err := driver.Stop(); err != nil {
		log.Printf("failed to stop chromedriver: %v", err)
	}
	if runErr != nil {
		log.Fatalf("rotation cycle failed: %v", runErr)
	}
}

func run(cfg config.Config, driver *webdriver.Driver) error {
	recorder, closeRecorder, err := initRecorder(cfg.History)
	if err != nil {
		return fmt.Errorf("failed to init history recorder: %w", err)
	}
	defer closeRecorder()

	router := webdriver.NewRouterClient(driver, cfg.Router.Addr, cfg.Router.AdminPassword)
	probe := webdriver.NewPortalProbe(driver, cfg.Portal.LoginURL)

	service, err := services.NewRotationService(services.Collaborators{
		Probe:     probe,
		Inspector: router,
		Switcher:  router,
		Notifier:  notify.NewDesktopNotifier(),
		Recorder:  recorder,
	}, services.Config{
		Candidates: cfg.Rotation.Candidates,
		Thresholds: cfg.Rotation.Thresholds,
	})
	if err != nil {
		return fmt.Errorf("failed to create rotation service: %w", err)
	}

	decision, err := service.RunCycle(context.Background())
	if err != nil {
		return err
	}

	log.Printf("rotation cycle finished: action=%s", decision.Action)
	return nil
}

func initRecorder(cfg config.HistoryConfig) (ports.CycleRecorder, func(), error) {
	switch cfg.Backend {
	case "", "none":
		return nil, func() {}, nil
	case "redis":
		recorder, err := redishistory.New(redishistory.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Limit:    cfg.Limit,
		})
		if err != nil {
			return nil, nil, err
		}
		return recorder, func() {
			if err := recorder.Close(); err != nil {
				log.Printf("failed to close history recorder: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported history backend: %s", cfg.Backend)
	}
}
