// Package tickdata supplies pull-based tick sources to the backtest engine:
// columnar text files (streamed or fully loaded) and ClickHouse tick tables.
package tickdata

import (
	"strconv"
	"strings"

	"fxbacktest/backtest"
)

// Tick aliases the engine's tick type; sources produce it directly.
type Tick = backtest.Tick

// Format describes the columnar layout of a tick data file. Column indices
// are zero-based; DateFormat and TimeFormat are Go reference layouts.
type Format struct {
	Delimiter  string `json:"delimiter" yaml:"delimiter"`
	DateCol    int    `json:"date_col" yaml:"date_col"`
	TimeCol    int    `json:"time_col" yaml:"time_col"`
	BidCol     int    `json:"bid_col" yaml:"bid_col"`
	AskCol     int    `json:"ask_col" yaml:"ask_col"`
	DateFormat string `json:"date_format" yaml:"date_format"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
	HasHeader  bool   `json:"has_header" yaml:"has_header"`

	// Encoding of the raw bytes: "" / "utf-8", "gbk", "utf-16le", "latin1".
	Encoding string `json:"encoding" yaml:"encoding"`
}

// DefaultFormat matches the common MT4-style tick export:
// date,time,bid,ask with a header row.
func DefaultFormat() Format {
	return Format{
		Delimiter:  ",",
		DateCol:    0,
		TimeCol:    1,
		BidCol:     2,
		AskCol:     3,
		DateFormat: "2006.01.02",
		TimeFormat: "15:04:05",
		HasHeader:  true,
	}
}

func (f Format) withDefaults() Format {
	if f.Delimiter == "" {
		f.Delimiter = ","
	}
	if f.BidCol == 0 && f.AskCol == 0 {
		d := DefaultFormat()
		f.DateCol, f.TimeCol, f.BidCol, f.AskCol = d.DateCol, d.TimeCol, d.BidCol, d.AskCol
	}
	return f
}

// parseLine converts one data line into a tick. A line with missing or
// non-numeric bid/ask columns is reported unusable, never an error.
func parseLine(line string, f Format) (backtest.Tick, bool) {
	parts := strings.Split(line, f.Delimiter)

	bid, ok := floatAt(parts, f.BidCol)
	if !ok {
		return backtest.Tick{}, false
	}
	ask, ok := floatAt(parts, f.AskCol)
	if !ok {
		return backtest.Tick{}, false
	}

	dateStr := fieldAt(parts, f.DateCol)
	timeStr := ""
	if f.TimeCol != f.DateCol {
		timeStr = fieldAt(parts, f.TimeCol)
	}

	return backtest.Tick{
		Time: backtest.ParseTickTime(dateStr, timeStr, f.DateFormat, f.TimeFormat),
		Bid:  bid,
		Ask:  ask,
	}, true
}

func fieldAt(parts []string, i int) string {
	if i < 0 || i >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[i])
}

func floatAt(parts []string, i int) (float64, bool) {
	s := fieldAt(parts, i)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
