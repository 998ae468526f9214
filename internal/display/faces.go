package display

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	Width  = 128
	Height = 64
)

const (
	FaceNeutral       = "neutral"
	FaceConcentration = "concentration"
	FaceDetermination = "determination"
	FaceConfusion     = "confusion"
)

var ErrNoFaces = errors.New("no valid faces")

var faceColumns = []string{"Emotion_Name", "Display_Width", "Display_Height", "Pixel_Data_String"}

// Face is a full screen monochrome bitmap, row major.
type Face struct {
	Name   string
	Pixels []bool
}

func LoadFacesFile(path string) ([]Face, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening faces file - %w", err)
	}
	defer f.Close()
	return LoadFaces(f)
}

// LoadFaces reads face rows from CSV. Rows that are not 128x64 or whose
// pixel string has the wrong length are skipped. Any pixel character other
// than '0' is lit.
func LoadFaces(r io.Reader) ([]Face, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed reading faces header - %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, column := range faceColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("faces file missing column %s", column)
		}
	}

	faces := make([]Face, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed reading faces - %w", err)
		}

		face, err := parseFace(record, index)
		if err != nil {
			log.Printf("warning: skipping face - %s\n", err)
			continue
		}
		faces = append(faces, face)
	}

	if len(faces) == 0 {
		return nil, ErrNoFaces
	}
	log.Printf("loaded %d faces\n", len(faces))
	return faces, nil
}

func parseFace(record []string, index map[string]int) (Face, error) {
	field := func(column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name := strings.ToLower(field("Emotion_Name"))
	width, err := strconv.Atoi(field("Display_Width"))
	if err != nil {
		return Face{}, fmt.Errorf("%s: bad width", name)
	}
	height, err := strconv.Atoi(field("Display_Height"))
	if err != nil {
		return Face{}, fmt.Errorf("%s: bad height", name)
	}
	if width != Width || height != Height {
		return Face{}, fmt.Errorf("%s: invalid size %dx%d", name, width, height)
	}

	data := field("Pixel_Data_String")
	if len(data) != width*height {
		return Face{}, fmt.Errorf("%s: pixel length mismatch", name)
	}

	pixels := make([]bool, len(data))
	for i := 0; i < len(data); i++ {
		pixels[i] = data[i] != '0'
	}
	return Face{Name: name, Pixels: pixels}, nil
}
