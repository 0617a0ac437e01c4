// Package trainlog loads training logs from CSV files.
package trainlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/trainplot/internal/model"
)

// Required column names.
const (
	BatchColumn  = "batch"
	RewardColumn = "average_reward"
)

const utf8BOM = "\ufeff"

// LoadCSV reads the batch and average_reward columns from the CSV file at path.
func LoadCSV(path string) (model.TrainingSeries, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.TrainingSeries{}, fmt.Errorf("%w: %s", model.ErrFileNotFound, path)
	}
	if info.IsDir() {
		return model.TrainingSeries{}, fmt.Errorf("%w: %s is a directory", model.ErrFileNotFound, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return model.TrainingSeries{}, fmt.Errorf("%w: %s: %v", model.ErrFileNotFound, path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()

	series, err := ParseCSV(file)
	if err != nil {
		return model.TrainingSeries{}, err
	}
	series.Source = path
	return series, nil
}

// ParseCSV reads a header row followed by data rows and extracts the required columns.
func ParseCSV(r io.Reader) (model.TrainingSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.TrainingSeries{}, fmt.Errorf("%w: no header row", model.ErrMalformedInput)
		}
		return model.TrainingSeries{}, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
	}
	batchIdx, rewardIdx, err := locateColumns(header)
	if err != nil {
		return model.TrainingSeries{}, err
	}

	var series model.TrainingSeries
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.TrainingSeries{}, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
		}
		line, _ := reader.FieldPos(0)
		batch, err := parseCell(record, batchIdx, BatchColumn, line)
		if err != nil {
			return model.TrainingSeries{}, err
		}
		reward, err := parseCell(record, rewardIdx, RewardColumn, line)
		if err != nil {
			return model.TrainingSeries{}, err
		}
		series.Batches = append(series.Batches, batch)
		series.Rewards = append(series.Rewards, reward)
	}
	if series.Len() == 0 {
		return model.TrainingSeries{}, fmt.Errorf("%w: no data rows", model.ErrMalformedInput)
	}
	return series, nil
}

func locateColumns(header []string) (int, int, error) {
	batchIdx, rewardIdx := -1, -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		switch strings.TrimSpace(name) {
		case BatchColumn:
			if batchIdx < 0 {
				batchIdx = i
			}
		case RewardColumn:
			if rewardIdx < 0 {
				rewardIdx = i
			}
		}
	}
	var missing []string
	if batchIdx < 0 {
		missing = append(missing, BatchColumn)
	}
	if rewardIdx < 0 {
		missing = append(missing, RewardColumn)
	}
	if len(missing) > 0 {
		return -1, -1, fmt.Errorf("%w: missing column %s", model.ErrMalformedInput, strings.Join(missing, ", "))
	}
	return batchIdx, rewardIdx, nil
}

func parseCell(record []string, idx int, column string, line int) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("%w: line %d: missing %s value", model.ErrMalformedInput, line, column)
	}
	raw := strings.TrimSpace(record[idx])
	if raw == "" {
		return 0, fmt.Errorf("%w: line %d: empty %s value", model.ErrMalformedInput, line, column)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: line %d: invalid %s value %q", model.ErrMalformedInput, line, column, raw)
	}
	return v, nil
}
