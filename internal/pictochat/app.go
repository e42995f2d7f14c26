package pictochat

import (
	"context"
	"encoding/hex"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
	"github.com/mjwells2002/foa-dswifi/internal/core/services/mac"
)

// Broadcaster receives application events for the monitor surface. Both
// methods must be safe from multiple goroutines. A nil Broadcaster is
// allowed.
type Broadcaster interface {
	BroadcastEvent(kind, mac string)
	BroadcastChat(fromMAC string, body []byte)
}

// Application is the PictoChat host logic: it answers the runner's frame
// rendezvous, consumes inbound datagrams and client events, and keeps
// the user table.
type Application struct {
	Control *mac.Control
	Room    Chatroom
	Users   *UserManager
	// Store persists events and chat lines; nil disables persistence.
	Store ports.SessionStore
	// Monitor mirrors traffic to the web surface; nil disables it.
	Monitor Broadcaster
}

func NewApplication(ctl *mac.Control, room Chatroom) *Application {
	return &Application{
		Control: ctl,
		Room:    room,
		Users:   NewUserManager(),
	}
}

// Run issues the startup control requests, then runs the three
// application loops until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	resp, err := a.Control.SendRequestAndWait(ctx, domain.ControlRequest{Kind: domain.ControlSetChannel, Channel: 7})
	if err != nil {
		return err
	}
	if resp != domain.ControlSuccess {
		slog.Error("Failed to set channel")
	} else {
		slog.Info("Set channel to 7")
	}

	resp, err = a.Control.SendRequestAndWait(ctx, domain.ControlRequest{Kind: domain.ControlSetBeaconsEnabled, Enabled: true})
	if err != nil {
		return err
	}
	if resp != domain.ControlSuccess {
		slog.Error("Failed to enable beacons")
	} else {
		slog.Info("Beacons enabled")
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); a.txLoop(ctx) }()
	go func() { defer wg.Done(); a.rxLoop(ctx) }()
	go func() { defer wg.Done(); a.eventLoop(ctx) }()
	wg.Wait()
	return ctx.Err()
}

// txLoop answers every FrameRequired with the current outbound frame.
// With no chat traffic queued the host sends the idle frame: empty
// payload, zero flags.
func (a *Application) txLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.Control.FrameRequired():
			slot := a.Control.Outbound()
			slot.Lock()
			slot.Size = 0
			slot.Flags = 0
			slot.Unlock()
			a.Control.FrameGenerated()
		}
	}
}

func (a *Application) rxLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case dg := <-a.Control.Inbound():
			a.handleDatagram(dg)
		}
	}
}

func (a *Application) handleDatagram(dg domain.Datagram) {
	body := dg.Bytes()
	hdr, payload, err := DecodeTransferHeader(body)
	if err != nil {
		slog.Debug("Unparseable datagram", "from", dg.Source.String(), "bytes", hex.EncodeToString(body))
		return
	}

	switch hdr.Type {
	case TypeIdentRequest, TypeIdentReply:
		if id, err := DecodeConsoleIdent(payload); err == nil {
			if a.Users.SetName(id.MAC, id.Name) {
				slog.Info("Console identified", "mac", id.MAC.String(), "name", id.Name)
			}
		}
	case TypeMessage:
		slog.Info("Chat message", "from", dg.Source.String(), "len", len(payload))
		if a.Store != nil {
			aid := domain.AID(hdr.Member)
			if err := a.Store.LogMessage(dg.Source, aid, payload, time.Now()); err != nil {
				log.Printf("Warning: failed to persist chat message: %v", err)
			}
		}
		if a.Monitor != nil {
			a.Monitor.BroadcastChat(dg.Source.String(), payload)
		}
	default:
		// Experimental territory: roster updates and the later ident
		// stages are not fully decoded yet.
		slog.Debug("Unhandled transfer type", "type", hdr.Type, "from", dg.Source.String())
	}
}

func (a *Application) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.Control.Events():
			switch ev.Kind {
			case domain.ClientConnected:
				slog.Info("Client connected", "mac", ev.MAC.String())
				a.Users.Join(User{MAC: ev.MAC})
			case domain.ClientDisconnected:
				slog.Info("Client disconnected", "mac", ev.MAC.String())
				a.Users.Leave(ev.MAC)
			}
			if a.Store != nil {
				if err := a.Store.LogEvent(ev.Kind.String(), ev.MAC, time.Now()); err != nil {
					log.Printf("Warning: failed to persist client event: %v", err)
				}
			}
			if a.Monitor != nil {
				a.Monitor.BroadcastEvent(ev.Kind.String(), ev.MAC.String())
			}
		}
	}
}
