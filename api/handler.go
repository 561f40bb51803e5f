package api

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fxbacktest/backtest"
	"fxbacktest/cache"
	"fxbacktest/tickdata"
)

type Handler struct {
	store *cache.Store
	chCfg tickdata.ClickHouseConfig
}

func NewHandler(store *cache.Store, chCfg tickdata.ClickHouseConfig) *Handler {
	return &Handler{store: store, chCfg: chCfg}
}

// UploadDataset stores a tick data file together with its column format.
// Format fields arrive as multipart form values alongside the file.
func (h *Handler) UploadDataset(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
		return
	}

	d := h.store.Put(header.Filename, data, formatFromForm(c))
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": d})
}

func (h *Handler) ListDatasets(c *gin.Context) {
	datasets := h.store.List()
	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(datasets),
		"data":  datasets,
	})
}

func (h *Handler) DeleteDataset(c *gin.Context) {
	id := c.Param("id")
	if !h.store.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found", "id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}

type clickhouseRange struct {
	Symbol string `json:"symbol"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type backtestRequest struct {
	DatasetID  string           `json:"dataset_id"`
	ClickHouse *clickhouseRange `json:"clickhouse"`

	// Stream reads the dataset incrementally instead of loading all ticks
	// into memory first.
	Stream bool `json:"stream"`

	Signals  []backtest.Signal       `json:"signals"`
	Strategy backtest.StrategyConfig `json:"strategy"`
	Risk     backtest.RiskConfig     `json:"risk"`
}

// RunBacktest resolves the requested tick source and runs the engine
// synchronously. The request context cancels the run when the client
// disconnects.
func (h *Handler) RunBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	src, cleanup, err := h.resolveSource(c, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cleanup != nil {
		defer cleanup()
	}

	runner := backtest.NewRunner(backtest.RunConfig{
		Strategy: req.Strategy,
		Risk:     req.Risk,
		Progress: func(n int64) { log.Printf("[BT] %d ticks processed\n", n) },
	})
	res, err := runner.Run(c.Request.Context(), src, req.Signals)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, backtest.ErrNoSignals) || errors.Is(err, backtest.ErrNoTimestampedSignals) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 0, "data": res})
}

func (h *Handler) resolveSource(c *gin.Context, req backtestRequest) (backtest.TickSource, func(), error) {
	switch {
	case req.DatasetID != "":
		d := h.store.Get(req.DatasetID)
		if d == nil {
			return nil, nil, errors.New("dataset not found: " + req.DatasetID)
		}
		if req.Stream {
			return tickdata.NewCSVSource(bytes.NewReader(d.Data), d.Format), nil, nil
		}
		ticks, err := tickdata.ParseAll(bytes.NewReader(d.Data), d.Format)
		if err != nil {
			return nil, nil, err
		}
		return tickdata.NewMemorySource(ticks), nil, nil

	case req.ClickHouse != nil:
		from, ok := backtest.ParseSignalTime(req.ClickHouse.From)
		if !ok {
			return nil, nil, errors.New("clickhouse.from is required")
		}
		to, ok := backtest.ParseSignalTime(req.ClickHouse.To)
		if !ok {
			to = time.Now().UTC()
		}
		conn, err := tickdata.Connect(h.chCfg)
		if err != nil {
			return nil, nil, err
		}
		src, err := tickdata.NewClickHouseSource(c.Request.Context(), conn, h.chCfg, req.ClickHouse.Symbol, from, to)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return src, func() { conn.Close() }, nil

	default:
		return nil, nil, errors.New("either dataset_id or clickhouse range is required")
	}
}

func formatFromForm(c *gin.Context) tickdata.Format {
	f := tickdata.DefaultFormat()
	if v := c.PostForm("delimiter"); v != "" {
		f.Delimiter = v
	}
	f.DateCol = formInt(c, "date_col", f.DateCol)
	f.TimeCol = formInt(c, "time_col", f.TimeCol)
	f.BidCol = formInt(c, "bid_col", f.BidCol)
	f.AskCol = formInt(c, "ask_col", f.AskCol)
	if v := c.PostForm("date_format"); v != "" {
		f.DateFormat = v
	}
	if v := c.PostForm("time_format"); v != "" {
		f.TimeFormat = v
	}
	if v := c.PostForm("has_header"); v != "" {
		f.HasHeader = v == "true" || v == "1"
	}
	f.Encoding = c.PostForm("encoding")
	return f
}

func formInt(c *gin.Context, key string, def int) int {
	v := c.PostForm(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
