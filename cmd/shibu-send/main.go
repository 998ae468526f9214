package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/link"
	"github.com/tarm/serial"
)

const (
	defaultSeconds = 5.0
	settleDelay    = 2 * time.Second
	betweenSends   = time.Second
)

type sender interface {
	Send(ctx context.Context, rotation int, durationSeconds float64) (string, error)
}

func main() {
	portName := flag.String("port", config.DefaultSerialDevice, "serial port (e.g. /dev/ttyUSB0)")
	baud := flag.Int("baud", config.DefaultBaudRate, "baud rate")
	rotate := flag.Int("rotate", 0, "rotation in degrees, positive is counter-clockwise")
	duration := flag.String("duration", "", "move time in seconds, prompts on stdin when empty")
	flag.Parse()

	port, err := serial.OpenPort(&serial.Config{
		Name:        *portName,
		Baud:        *baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("failed opening %s - %s", *portName, err)
	}
	defer port.Close()
	log.Printf("connected to %s at %d baud\n", *portName, *baud)
	time.Sleep(settleDelay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChannel
		log.Println("stopping...")
		cancel()
		os.Stdin.Close()
	}()

	client := link.NewClient(port)
	if *duration != "" {
		seconds, err := parseSeconds(*duration)
		if err != nil {
			log.Fatalf("invalid duration - %s", err)
		}
		err = sendOne(ctx, client, os.Stdout, *rotate, seconds)
		if err != nil && !errors.Is(err, link.ErrAckTimeout) {
			log.Fatalf("send failed - %s", err)
		}
		return
	}

	err = prompt(ctx, client, os.Stdin, os.Stdout, *rotate)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("send failed - %s", err)
	}
}

// parseSeconds accepts a plain number of seconds; empty input means the default.
func parseSeconds(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultSeconds, nil
	}
	seconds, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", input)
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("%q is out of range", input)
	}
	return seconds, nil
}

func sendOne(ctx context.Context, client sender, out io.Writer, rotation int, seconds float64) error {
	fmt.Fprintf(out, "sent: %s\n", strings.TrimSpace(link.FormatCommand(rotation, seconds)))

	reply, err := client.Send(ctx, rotation, seconds)
	if errors.Is(err, link.ErrAckTimeout) {
		fmt.Fprintln(out, "no reply (still executing or check wiring)")
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "reply: %s\n", reply)
	return nil
}

// prompt reads one duration per line and sends it with the fixed rotation.
func prompt(ctx context.Context, client sender, in io.Reader, out io.Writer, rotation int) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "move time in seconds (default %g): ", defaultSeconds)
		if !scanner.Scan() {
			return scanner.Err()
		}

		seconds, err := parseSeconds(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "invalid input - %s\n", err)
			continue
		}

		err = sendOne(ctx, client, out, rotation, seconds)
		if err != nil && !errors.Is(err, link.ErrAckTimeout) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(betweenSends)
	}
}
