package link

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shibu-robo/shibu_drive/internal/models"
)

var (
	ErrInvalidCommand = errors.New("invalid command")
	ErrAckTimeout     = errors.New("ack timeout")
)

var bracketReplacer = strings.NewReplacer("<", " ", ">", " ", ";", ",")

// ParseCommand reads a (rotation, duration) pair. Accepted forms include
// "<deg,ms>", "<deg><ms>", "deg ms" and "deg,ms". A trailing s on the
// duration means seconds.
func ParseCommand(line string) (models.Command, error) {
	cmd := models.Command{Raw: line}

	normalized := strings.TrimSpace(bracketReplacer.Replace(strings.ToLower(line)))

	fields := make([]string, 0, 2)
	for _, part := range strings.Split(normalized, ",") {
		words := strings.Fields(part)
		if len(words) == 0 {
			fields = append(fields, "")
			continue
		}
		fields = append(fields, words...)
	}

	switch {
	case len(fields) < 2:
		return cmd, fmt.Errorf("%w: no separator in %q", ErrInvalidCommand, line)
	case len(fields) > 2:
		return cmd, fmt.Errorf("%w: too many fields in %q", ErrInvalidCommand, line)
	case fields[0] == "" || fields[1] == "":
		return cmd, fmt.Errorf("%w: empty field in %q", ErrInvalidCommand, line)
	}

	rotation, err := parseRotation(fields[0])
	if err != nil {
		return cmd, err
	}

	durationMs, err := parseDuration(fields[1])
	if err != nil {
		return cmd, err
	}

	cmd.Rotation = rotation
	cmd.DurationMs = durationMs
	return cmd, nil
}

// parseRotation truncates fractional degrees toward zero, like durations.
func parseRotation(field string) (int, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: bad rotation %q", ErrInvalidCommand, field)
	}
	if math.Abs(value) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: rotation out of range %q", ErrInvalidCommand, field)
	}
	return int(value), nil
}

func parseDuration(field string) (uint32, error) {
	seconds := strings.HasSuffix(field, "s")
	value, err := strconv.ParseFloat(strings.TrimSuffix(field, "s"), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: bad duration %q", ErrInvalidCommand, field)
	}

	if seconds {
		value *= 1000
	}
	if value < 0 || value > math.MaxUint32 {
		return 0, fmt.Errorf("%w: duration out of range %q", ErrInvalidCommand, field)
	}
	return uint32(value), nil
}

// FormatCommand renders the line the host sends, duration in seconds.
func FormatCommand(rotation int, durationSeconds float64) string {
	return fmt.Sprintf("<%d,%gs>\n", rotation, durationSeconds)
}
