package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shibu-robo/shibu_drive/internal/display"
	"github.com/shibu-robo/shibu_drive/internal/models"
)

// commandLoop runs one command at a time. Cancelling ctx stops it between
// commands, never inside one.
func (a *App) commandLoop(ctx context.Context) error {
	log.Println("command loop started")
	for {
		cmd, err := a.link.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Println("command loop stopped")
				return ctx.Err()
			}
			return fmt.Errorf("command link failed - %w", err)
		}

		err = a.runCommand(cmd)
		if err != nil {
			log.Printf("command %s failed - error: %s\n", cmd.Id, err)
			a.showFace(display.FaceConfusion)
			continue
		}

		err = a.link.Ack()
		if err != nil {
			return err
		}
		a.showFace(display.FaceNeutral)
	}
}

// runCommand rotates and then moves. No ack is sent for a failed command.
func (a *App) runCommand(cmd models.Command) error {
	a.showFace(display.FaceConcentration)
	rotateResult, err := a.controller.Rotate(cmd.Rotation)
	if err != nil {
		return err
	}

	a.showFace(display.FaceDetermination)
	moveResult, err := a.controller.Move(cmd.Duration())
	if err != nil {
		return err
	}

	log.Printf("command %s done - turn: %s heading: %d moved: %s final: %d\n",
		cmd.Id, rotateResult.Outcome, rotateResult.Final, moveResult.Elapsed, moveResult.Final)
	return nil
}
