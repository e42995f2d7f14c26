// Package app wires the host together: radio, MAC runner, PictoChat
// application, monitor server and the optional session log.
package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"strings"

	"github.com/mjwells2002/foa-dswifi/internal/adapters/radio"
	"github.com/mjwells2002/foa-dswifi/internal/adapters/storage"
	"github.com/mjwells2002/foa-dswifi/internal/adapters/web"
	"github.com/mjwells2002/foa-dswifi/internal/config"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
	"github.com/mjwells2002/foa-dswifi/internal/core/services/mac"
	"github.com/mjwells2002/foa-dswifi/internal/pictochat"
	"github.com/mjwells2002/foa-dswifi/internal/telemetry"
)

// simMAC is the host address used in mock mode.
var simMAC = net.HardwareAddr{0x00, 0x09, 0xBF, 0x00, 0x00, 0x01}

// Application is the composition root.
type Application struct {
	Config    *config.Config
	Radio     ports.Radio
	Runner    *mac.Runner
	Chat      *pictochat.Application
	WebServer *web.Server
	Store     ports.SessionStore
}

// New bootstraps every component. Construction order matters: the shared
// MAC resources are built first (inside mac.New), then the application
// and servers receive non-owning handles.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	telemetry.InitMetrics()

	if err := app.initRadio(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	hostMAC, err := app.hostMAC()
	if err != nil {
		return nil, err
	}

	room, err := parseRoom(cfg.Chatroom)
	if err != nil {
		return nil, err
	}

	runner, ctl, err := mac.New(mac.Config{
		Radio:     app.Radio,
		MAC:       hostMAC,
		Channel:   uint8(cfg.Channel),
		BeaconTag: pictochat.BeaconTag(room),
	})
	if err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	app.Runner = runner

	app.Chat = pictochat.NewApplication(ctl, room)

	if cfg.DBPath != "" {
		store, err := storage.NewSQLiteAdapter(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("application bootstrap failed: %w", err)
		}
		app.Store = store
		app.Chat.Store = store
	}

	app.WebServer = web.NewServer(cfg.Addr, runner, app.Store)
	app.Chat.Monitor = app.WebServer.WSManager

	return app, nil
}

func (app *Application) initRadio() error {
	if app.Config.MockMode {
		log.Println("Mock mode: using simulator radio")
		app.Radio = radio.NewSim()
		return nil
	}
	r, err := radio.NewPcap(app.Config.Interface)
	if err != nil {
		return err
	}
	app.Radio = r
	return nil
}

func (app *Application) hostMAC() (net.HardwareAddr, error) {
	if app.Config.MockMode {
		return simMAC, nil
	}
	iface, err := net.InterfaceByName(app.Config.Interface)
	if err != nil {
		return nil, fmt.Errorf("read MAC of %s: %w", app.Config.Interface, err)
	}
	return iface.HardwareAddr, nil
}

func parseRoom(s string) (pictochat.Chatroom, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "":
		return pictochat.RoomA, nil
	case "B":
		return pictochat.RoomB, nil
	case "C":
		return pictochat.RoomC, nil
	case "D":
		return pictochat.RoomD, nil
	default:
		return 0, fmt.Errorf("unknown chatroom %q", s)
	}
}

// Run starts every component and blocks until the context is cancelled
// or one of them fails.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting dshost components...")

	errChan := make(chan error, 3)

	go func() {
		if err := app.Runner.Run(ctx); err != nil && ctx.Err() == nil {
			errChan <- fmt.Errorf("mac runner error: %w", err)
		}
	}()

	go func() {
		log.Printf("Monitor server listening on %s", app.Config.Addr)
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	go func() {
		if err := app.Chat.Run(ctx); err != nil && ctx.Err() == nil {
			errChan <- fmt.Errorf("pictochat error: %w", err)
		}
	}()

	slog.Info("dshost ready")

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		return err
	}

	return app.cleanup()
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")
	if app.Radio != nil {
		app.Radio.Close()
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			log.Printf("Warning: closing session log: %v", err)
		}
	}
	return nil
}
