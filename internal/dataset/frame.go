// Package dataset reads and writes the track CSV files exchanged between
// ingestion and transformation.
//
// A Frame keeps every column of the source file so splits written by
// ingestion are lossless copies of the sampled rows. Records extracts only
// the feature and genre columns the model cares about.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"genrecast/internal/track"
)

// Frame is an in-memory CSV table.
type Frame struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Subset returns a frame holding the rows at the given indices, in order.
func (f *Frame) Subset(indices []int) *Frame {
	out := &Frame{Header: append([]string(nil), f.Header...), Rows: make([][]string, len(indices))}
	for i, idx := range indices {
		out.Rows[i] = f.Rows[idx]
	}
	return out
}

// ReadFrame loads a CSV file whose first line is the header.
func ReadFrame(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeFrame(file)
}

// DecodeFrame parses CSV data whose first line is the header.
func DecodeFrame(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	frame := &Frame{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(frame.Rows)+1, err)
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}

// WriteFrame writes the frame as CSV, creating parent directories as needed.
func WriteFrame(path string, frame *Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(frame.Header); err != nil {
		_ = file.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(frame.Rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	return file.Close()
}

// Records parses the feature and genre columns of every row.
func (f *Frame) Records() ([]track.Record, error) {
	index := make(map[string]int, len(f.Header))
	for i, name := range f.Header {
		index[strings.TrimSpace(name)] = i
	}
	required := append(append(append([]string{}, track.NumericColumns...), track.CategoricalColumns...), track.GenreColumn)
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	records := make([]track.Record, 0, len(f.Rows))
	for rowIdx, row := range f.Rows {
		p := rowParser{row: row, index: index, line: rowIdx + 2}
		rec := track.Record{
			Features: track.Features{
				Danceability:     p.float(track.ColDanceability),
				Energy:           p.float(track.ColEnergy),
				Loudness:         p.float(track.ColLoudness),
				Speechiness:      p.float(track.ColSpeechiness),
				Acousticness:     p.float(track.ColAcousticness),
				Instrumentalness: p.float(track.ColInstrumentalness),
				Liveness:         p.float(track.ColLiveness),
				Valence:          p.float(track.ColValence),
				Tempo:            p.float(track.ColTempo),
				Key:              p.int(track.ColKey),
				Mode:             p.int(track.ColMode),
				TimeSignature:    p.int(track.ColTimeSignature),
			},
			Genre: p.field(track.GenreColumn),
		}
		if p.err != nil {
			return nil, p.err
		}
		records = append(records, rec)
	}
	return records, nil
}

// rowParser keeps the first parse error so field extraction reads linearly.
type rowParser struct {
	row   []string
	index map[string]int
	line  int
	err   error
}

func (p *rowParser) field(name string) string {
	idx := p.index[name]
	if idx >= len(p.row) {
		if p.err == nil {
			p.err = fmt.Errorf("line %d: column %q missing", p.line, name)
		}
		return ""
	}
	return strings.TrimSpace(p.row[idx])
}

func (p *rowParser) float(name string) float64 {
	raw := p.field(name)
	if p.err != nil {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("line %d: column %q: %w", p.line, name, err)
		return 0
	}
	return value
}

// int accepts integral floats such as "4.0", which pandas writes for
// integer columns that once held NaN.
func (p *rowParser) int(name string) int {
	raw := p.field(name)
	if p.err != nil {
		return 0
	}
	if value, err := strconv.Atoi(raw); err == nil {
		return value
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value != float64(int(value)) {
		p.err = fmt.Errorf("line %d: column %q: %q is not an integer", p.line, name, raw)
		return 0
	}
	return int(value)
}
