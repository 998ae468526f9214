package display

import (
	"fmt"
	"image/color"
	"log"
	"strings"
	"sync"
)

var on = color.RGBA{R: 255, G: 255, B: 255, A: 255}

type Panel interface {
	SetPixel(x, y int16, c color.RGBA)
	Display() error
	ClearBuffer()
}

// Display shows named faces on the OLED. A nil panel makes every call a no-op.
type Display struct {
	lock  sync.Mutex
	panel Panel
	faces map[string]Face
	first string
	shown string
}

func New(panel Panel, faces []Face) *Display {
	d := &Display{
		panel: panel,
		faces: make(map[string]Face, len(faces)),
	}
	for _, face := range faces {
		if d.first == "" {
			d.first = face.Name
		}
		d.faces[face.Name] = face
	}
	return d
}

// Show draws the named face, or the first loaded face when the name is unknown.
func (d *Display) Show(name string) error {
	if d == nil || d.panel == nil || d.first == "" {
		return nil
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	name = strings.ToLower(strings.TrimSpace(name))
	face, ok := d.faces[name]
	if !ok {
		log.Printf("warning: face %s not found, showing %s\n", name, d.first)
		face = d.faces[d.first]
	}
	if face.Name == d.shown {
		return nil
	}

	d.panel.ClearBuffer()
	for i, lit := range face.Pixels {
		if lit {
			d.panel.SetPixel(int16(i%Width), int16(i/Width), on)
		}
	}
	err := d.panel.Display()
	if err != nil {
		return fmt.Errorf("failed showing face %s - %w", face.Name, err)
	}
	d.shown = face.Name
	return nil
}

func (d *Display) Clear() error {
	if d == nil || d.panel == nil {
		return nil
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	d.panel.ClearBuffer()
	d.shown = ""
	return d.panel.Display()
}

// Shown is the name of the face on screen, empty when cleared.
func (d *Display) Shown() string {
	if d == nil {
		return ""
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.shown
}
