package feed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2004-06-11 04:00:00,384.1,385.0,383.5,384.6,120
2004-06-11 05:00:00,384.6,386.2,384.0,385.9,98
`

func TestCSVSourceParsesRows(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader(sampleCSV), "sample")
	if err != nil {
		t.Fatalf("NewCSVSource error: %v", err)
	}
	bars, err := Drain(context.Background(), src)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	want := time.Date(2004, 6, 11, 4, 0, 0, 0, time.UTC)
	if !bars[0].Time.Equal(want) || bars[0].Open != 384.1 || bars[0].High != 385.0 || bars[0].Low != 383.5 || bars[0].Close != 384.6 {
		t.Fatalf("unexpected first bar %+v", bars[0])
	}
	if bars[1].Time.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps")
	}
}

func TestCSVSourceHeaderAnyOrder(t *testing.T) {
	in := "close,low,high,open,date\n2.5,1,3,2,2024-01-02 00:00:00\n"
	src, err := NewCSVSource(strings.NewReader(in), "reordered")
	if err != nil {
		t.Fatalf("NewCSVSource error: %v", err)
	}
	b, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if b.Open != 2 || b.High != 3 || b.Low != 1 || b.Close != 2.5 {
		t.Fatalf("unexpected bar %+v", b)
	}
	if _, err := src.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCSVSourceMissingColumn(t *testing.T) {
	if _, err := NewCSVSource(strings.NewReader("Date,Open,High,Close\n"), "short"); err == nil {
		t.Fatalf("expected error for missing Low column")
	}
}

func TestCSVSourceMalformedRow(t *testing.T) {
	in := "Date,Open,High,Low,Close\n2024-01-02 00:00:00,1,2,0.5,abc\n"
	src, err := NewCSVSource(strings.NewReader(in), "bad")
	if err != nil {
		t.Fatalf("NewCSVSource error: %v", err)
	}
	_, err = src.Next(context.Background())
	if !errors.Is(err, domain.ErrInvalidBar) {
		t.Fatalf("expected ErrInvalidBar, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestWriteCSVRoundTripsThroughFile(t *testing.T) {
	bars := []domain.Bar{
		{Time: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Open: 1.1, High: 1.3, Low: 1.0, Close: 1.2},
		{Time: time.Date(2024, 1, 2, 9, 1, 0, 0, time.UTC), Open: 1.2, High: 1.25, Low: 1.15, Close: 1.18},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, bars); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	src, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer src.Close()
	got, err := Drain(context.Background(), src)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if !got[1].Time.Equal(bars[1].Time) || got[1].High != bars[1].High || got[1].Close != bars[1].Close {
		t.Fatalf("expected %+v, got %+v", bars[1], got[1])
	}
}

type pagedStore struct {
	bars  []domain.Bar
	calls int
}

func (p *pagedStore) InsertBatch(context.Context, string, string, []domain.Bar) (int64, error) {
	return 0, nil
}

func (p *pagedStore) LastTime(context.Context, string, string) (time.Time, error) {
	return time.Time{}, domain.ErrNotFound
}

func (p *pagedStore) ListBars(_ context.Context, _, _ string, opts domain.ListOpts) ([]domain.Bar, error) {
	p.calls++
	var out []domain.Bar
	for _, b := range p.bars {
		if opts.Since != nil && !b.Time.After(*opts.Since) {
			continue
		}
		out = append(out, b)
		if len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func TestStoreSourcePages(t *testing.T) {
	store := &pagedStore{}
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		store.bars = append(store.bars, domain.Bar{Time: t0.Add(time.Duration(i) * time.Hour), Open: 1, High: 2, Low: 0.5, Close: 1.5})
	}
	src := NewStoreSource(store, "XAUUSD", "1h", nil, nil)
	src.pageSize = 3
	got, err := Drain(context.Background(), src)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("expected 7 bars, got %d", len(got))
	}
	if store.calls != 3 {
		t.Fatalf("expected 3 page queries, got %d", store.calls)
	}
}

func TestWebsocketSourceStreamsBars(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil || cmd.Type != "subscribe" || cmd.Symbol != "XAUUSD" {
			return
		}
		t0 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
		_ = conn.WriteJSON(map[string]any{"type": "heartbeat"})
		_ = conn.WriteJSON(wsMessage{Type: "bar", Symbol: "EURUSD", Bar: &domain.Bar{Time: t0, Open: 1, High: 1, Low: 1, Close: 1}})
		for i := 0; i < 2; i++ {
			b := domain.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: 2000, High: 2001, Low: 1999, Close: 2000.5}
			_ = conn.WriteJSON(wsMessage{Type: "bar", Symbol: "XAUUSD", Bar: &b})
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := NewWebsocketSource(url, "XAUUSD", "1m", logger)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := Drain(ctx, src)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 XAUUSD bars, got %d", len(got))
	}
	if got[1].Close != 2000.5 || !got[1].Time.Equal(time.Date(2024, 1, 2, 9, 1, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bar %+v", got[1])
	}
}

type memBlobs map[string]string

func (m memBlobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := m[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (m memBlobs) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var out []domain.BlobInfo
	for key, body := range m {
		if strings.HasPrefix(key, prefix) {
			out = append(out, domain.BlobInfo{Path: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func TestBlobSourceSingleKey(t *testing.T) {
	blobs := memBlobs{"bars/XAUUSD.csv": sampleCSV}
	src, err := OpenBlobCSV(context.Background(), blobs, "bars/XAUUSD.csv")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	got, err := Drain(context.Background(), src)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d (%v)", len(got), err)
	}
}

func TestBlobSourceChainsPrefixInKeyOrder(t *testing.T) {
	blobs := memBlobs{
		"bars/XAUUSD/2004-07.csv": "Date,Open,High,Low,Close\n2004-07-01 00:00:00,390,391,389,390.5\n",
		"bars/XAUUSD/2004-06.csv": sampleCSV,
		"bars/XAUUSD/README.txt":  "not bars",
	}
	src, err := OpenBlobCSV(context.Background(), blobs, "bars/XAUUSD/")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	got, err := Drain(context.Background(), src)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bars across both files, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Time.After(got[i-1].Time) {
			t.Fatalf("expected ascending bars, got %v then %v", got[i-1].Time, got[i].Time)
		}
	}
	if got[2].Close != 390.5 {
		t.Fatalf("expected the july file last, got %+v", got[2])
	}
}

func TestBlobSourceEmptyPrefix(t *testing.T) {
	_, err := OpenBlobCSV(context.Background(), memBlobs{"other/x.csv": sampleCSV}, "bars/XAUUSD/")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlobSourceMissingKey(t *testing.T) {
	_, err := OpenBlobCSV(context.Background(), memBlobs{}, "bars/EURUSD.csv")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
