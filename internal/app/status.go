package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/procfs"
	"github.com/shibu-robo/shibu_drive/internal/models"
)

type statsReader interface {
	Read(status *models.Status) error
}

type procStats struct {
	netDevice string
}

func (p procStats) Read(status *models.Status) error {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return fmt.Errorf("failed opening procfs - %w", err)
	}

	load, err := fs.LoadAvg()
	if err != nil {
		return fmt.Errorf("failed reading load average - %w", err)
	}
	status.Load1 = load.Load1
	status.Load5 = load.Load5
	status.Load15 = load.Load15

	proc, err := fs.Self()
	if err != nil {
		return fmt.Errorf("failed reading self - %w", err)
	}
	netDev, err := proc.NetDev()
	if err != nil {
		return fmt.Errorf("failed reading net dev - %w", err)
	}
	device, ok := netDev[p.netDevice]
	if ok {
		status.RxBytes = device.RxBytes
		status.TxBytes = device.TxBytes
	}
	return nil
}

func (a *App) statusLoop(ctx context.Context) error {
	if a.Cfg.StatusInterval <= 0 {
		log.Println("status disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	statusTicker := time.NewTicker(a.Cfg.StatusInterval)
	defer statusTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("status stopped")
			return ctx.Err()
		case <-statusTicker.C:
			status := a.Status()
			log.Printf("status - heading: %d ranges: %v load: %.2f %.2f %.2f rx: %d tx: %d\n",
				status.Heading, status.Ranges, status.Load1, status.Load5, status.Load15, status.RxBytes, status.TxBytes)
		}
	}
}

// Status samples the heading, ranges and host stats. Read failures are
// logged and leave the field zero.
func (a *App) Status() models.Status {
	status := models.Status{TimeStamp: time.Now().UnixMilli()}

	heading, err := a.sensor.Heading()
	if err != nil {
		log.Printf("warning: status heading failed - error: %s\n", err)
	} else {
		status.Heading = heading
	}

	if a.ranges != nil {
		status.Ranges = a.ranges.Read()
	}

	if a.stats != nil {
		err = a.stats.Read(&status)
		if err != nil {
			log.Printf("warning: status stats failed - error: %s\n", err)
		}
	}
	return status
}
