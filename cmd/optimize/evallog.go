package main

import (
	"encoding/csv"
	"os"
	"strconv"
)

// evalLog appends one CSV row per evaluation. Rows are flushed immediately so
// an interrupted run keeps its history.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	header := []string{"eval", "fitness", "survival_sec", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}
	if err := l.flush(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Write records a single evaluation.
func (l *evalLog) Write(eval int, fitness, survival, quality float64, values []float64) error {
	row := []string{
		strconv.Itoa(eval),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(survival, 'f', 2, 64),
		strconv.FormatFloat(quality, 'f', 4, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	return l.flush(row)
}

func (l *evalLog) flush(row []string) error {
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Close closes the underlying file.
func (l *evalLog) Close() error {
	return l.f.Close()
}
