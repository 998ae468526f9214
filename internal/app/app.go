package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/display"
	"github.com/shibu-robo/shibu_drive/internal/drive"
	"github.com/shibu-robo/shibu_drive/internal/models"
	"golang.org/x/sync/errgroup"
)

var ErrSignal = errors.New("received signal")

type CommandLink interface {
	Next(ctx context.Context) (models.Command, error)
	Ack() error
	Close() error
}

type RangeBank interface {
	Init() error
	Len() int
	Read() []uint16
	Stop()
}

// Parts are the collaborators the app drives. Ranges and Display are optional.
type Parts struct {
	Driver  drive.CommandDriverIFace
	Sensor  drive.HeadingSensor
	Link    CommandLink
	Ranges  RangeBank
	Display *display.Display
	Clock   drive.Clock

	closers []func() error
}

type App struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	Cfg config.Config

	controller *drive.Controller
	sensor     drive.HeadingSensor
	link       CommandLink
	ranges     RangeBank
	display    *display.Display
	stats      statsReader
	closers    []func() error
}

// NewApp opens the hardware named in cfg.
func NewApp(cfg config.Config) (*App, error) {
	parts, err := buildParts(cfg)
	if err != nil {
		return nil, err
	}
	return NewAppWithParts(cfg, parts), nil
}

func NewAppWithParts(cfg config.Config, parts Parts) *App {
	ctx, cancel := context.WithCancel(context.Background())

	wiring := drive.Wiring{ForwardIsReverse: cfg.CommandCfg.ForwardIsReverse}
	controller := drive.NewController(cfg.TuningCfg, wiring, parts.Driver, parts.Sensor)
	controller.Verbose = cfg.Verbose
	if parts.Clock != nil {
		controller.SetClock(parts.Clock)
	}

	return &App{
		ctx:        ctx,
		ctxCancel:  cancel,
		Cfg:        cfg,
		controller: controller,
		sensor:     parts.Sensor,
		link:       parts.Link,
		ranges:     parts.Ranges,
		display:    parts.Display,
		stats:      procStats{netDevice: cfg.NetDevice},
		closers:    parts.closers,
	}
}

// Stop cancels Start. An operation already running finishes first.
func (a *App) Stop() {
	a.ctxCancel()
}

func (a *App) Start() error {
	log.Println("starting...")

	err := a.controller.Init()
	if err != nil {
		return fmt.Errorf("error initializing drive - %w", err)
	}

	if a.ranges != nil {
		err = a.ranges.Init()
		if err != nil {
			log.Printf("warning: ranging disabled - error: %s\n", err)
			a.ranges.Stop()
			a.ranges = nil
		}
	}
	a.showFace(display.FaceNeutral)

	group, groupCtx := errgroup.WithContext(a.ctx)

	//kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(signalChannel)
		select {
		case sig := <-signalChannel:
			log.Printf("received signal: %s\n", sig)
			a.ctxCancel()
			return fmt.Errorf("%w: %s", ErrSignal, sig)
		case <-groupCtx.Done():
			log.Println("closing signal goroutine")
			return groupCtx.Err()
		}
	})

	if a.link != nil {
		group.Go(func() error {
			return a.commandLoop(groupCtx)
		})
	} else {
		log.Println("command link disabled")
	}

	group.Go(func() error {
		return a.statusLoop(groupCtx)
	})

	err = group.Wait()
	shutdownErr := a.shutdown()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrSignal) {
		return errors.Join(fmt.Errorf("stopping due to error - %w", err), shutdownErr)
	}
	return shutdownErr
}

func (a *App) shutdown() error {
	log.Println("shutting down")

	// ranging pins go low before the drive can close rpio
	if a.ranges != nil {
		a.ranges.Stop()
	}

	var errs []error
	err := a.controller.Halt()
	if err != nil {
		errs = append(errs, err)
	}
	err = a.display.Clear()
	if err != nil {
		errs = append(errs, err)
	}
	if a.link != nil {
		err = a.link.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed closing command link - %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = a.closers[i]()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) showFace(name string) {
	err := a.display.Show(name)
	if err != nil {
		log.Printf("warning: display failed - error: %s\n", err)
	}
}

