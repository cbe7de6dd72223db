package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/foodlang/tarjama/internal/config"
	"github.com/foodlang/tarjama/internal/embedding"
	"github.com/foodlang/tarjama/internal/retrieval"
	"github.com/foodlang/tarjama/internal/translate"
	"github.com/foodlang/tarjama/internal/version"
)

type stubChat struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (s *stubChat) Complete(ctx context.Context, prompt string) (translate.Completion, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return translate.Completion{Text: s.reply, TotalTokens: 42}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimensions = 32
	cfg.Usage.DatabasePath = ""
	return cfg
}

func newTestService(t *testing.T) (*Service, *stubChat) {
	t.Helper()
	chat := &stubChat{reply: "translated"}
	svc := NewWithClients(testConfig(), zap.NewNop(), embedding.NewMockEmbedder(32), chat, nil, nil)
	t.Cleanup(svc.Close)
	return svc, chat
}

func glossaryWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

var defaultRows = [][]string{
	{"English", "Arabic"},
	{"whole milk", "حليب كامل الدسم"},
	{"brown sugar", "سكر بني"},
	{"olive oil", "زيت زيتون"},
	{"", "بدون مقابل"},
}

func TestUploadThenTranslate(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.UploadGlossary(context.Background(), "glossary.xlsx", glossaryWorkbook(t, defaultRows))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.ValidCount != 3 || res.SkippedCount != 1 {
		t.Errorf("parse counts = %d/%d", res.ValidCount, res.SkippedCount)
	}
	if res.Version.ID != 1 || !res.Version.Active {
		t.Errorf("version = %+v", res.Version)
	}

	got, err := svc.Translate(context.Background(), "whole milk")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got.TranslatedText != "translated" {
		t.Errorf("translated text = %q", got.TranslatedText)
	}
	if len(got.Hints) != 3 {
		t.Errorf("hints = %d", len(got.Hints))
	}

	stats := svc.Usage()
	if stats.TotalRequests != 2 {
		t.Errorf("usage requests = %d", stats.TotalRequests)
	}
	if stats.EmbeddingTokens == 0 {
		t.Error("upload recorded no embedding tokens")
	}
}

func TestTranslateBeforeUpload(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Translate(context.Background(), "milk")
	if !errors.Is(err, retrieval.ErrNoGlossary) {
		t.Fatalf("expected ErrNoGlossary, got %v", err)
	}
}

func TestUploadInvalidWorkbookKeepsActive(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.UploadGlossary(context.Background(), "v1.xlsx", glossaryWorkbook(t, defaultRows)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	empty := [][]string{{"English", "Arabic"}, {"", ""}}
	if _, err := svc.UploadGlossary(context.Background(), "v2.xlsx", glossaryWorkbook(t, empty)); err == nil {
		t.Fatal("expected validation error for empty glossary")
	}
	if _, err := svc.UploadGlossary(context.Background(), "junk.xlsx", []byte("not a workbook")); err == nil {
		t.Fatal("expected decode error for junk bytes")
	}

	if got, err := svc.Translate(context.Background(), "milk"); err != nil || got == nil {
		t.Fatalf("active version lost after failed uploads: %v", err)
	}
	if len(svc.Versions()) != 1 {
		t.Errorf("history = %d entries", len(svc.Versions()))
	}
}

func TestRollbackRestoresOldVersion(t *testing.T) {
	svc, _ := newTestService(t)
	first, err := svc.UploadGlossary(context.Background(), "v1.xlsx", glossaryWorkbook(t, defaultRows))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	second := [][]string{{"English", "Arabic"}, {"salt", "ملح"}}
	if _, err := svc.UploadGlossary(context.Background(), "v2.xlsx", glossaryWorkbook(t, second)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	info, err := svc.Rollback(first.Version.ID)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if info.ID != first.Version.ID || info.Entries != 3 {
		t.Errorf("rollback info = %+v", info)
	}

	got, err := svc.Translate(context.Background(), "whole milk")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(got.Hints) != 3 {
		t.Errorf("expected 3 hints from restored version, got %d", len(got.Hints))
	}

	var re *version.RollbackError
	if _, err := svc.Rollback(999); !errors.As(err, &re) {
		t.Fatalf("expected RollbackError, got %v", err)
	}
}

type gatedEmbedder struct {
	*embedding.MockEmbedder
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	return g.MockEmbedder.EmbedBatch(ctx, texts)
}

func TestConcurrentUploadRejected(t *testing.T) {
	gate := &gatedEmbedder{
		MockEmbedder: embedding.NewMockEmbedder(32),
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	chat := &stubChat{reply: "x"}
	svc := NewWithClients(testConfig(), zap.NewNop(), gate, chat, nil, nil)
	t.Cleanup(svc.Close)

	workbook := glossaryWorkbook(t, defaultRows)
	done := make(chan error, 1)
	go func() {
		_, err := svc.UploadGlossary(context.Background(), "first.xlsx", workbook)
		done <- err
	}()

	<-gate.started
	_, err := svc.UploadGlossary(context.Background(), "second.xlsx", workbook)
	if !errors.Is(err, version.ErrBuildInProgress) {
		t.Fatalf("expected ErrBuildInProgress, got %v", err)
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if svc.Versions()[0].Source != "first.xlsx" {
		t.Errorf("active source = %q", svc.Versions()[0].Source)
	}
}

func TestSearchGlossary(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.SearchGlossary("milk", 5); !errors.Is(err, retrieval.ErrNoGlossary) {
		t.Fatalf("expected ErrNoGlossary before upload, got %v", err)
	}

	if _, err := svc.UploadGlossary(context.Background(), "v1.xlsx", glossaryWorkbook(t, defaultRows)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	matches, err := svc.SearchGlossary("milk", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) == 0 || matches[0].Entry.Source != "whole milk" {
		t.Errorf("matches = %+v", matches)
	}
}

func TestExtractPlainAndTranslate(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.UploadGlossary(context.Background(), "v1.xlsx", glossaryWorkbook(t, defaultRows)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	out, err := svc.Extract(context.Background(), "label.txt", "", []byte("whole milk, sugar"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out.ExtractedText != "whole milk, sugar" {
		t.Errorf("extracted = %q", out.ExtractedText)
	}
	if out.Translation == nil || out.Translation.TranslatedText != "translated" {
		t.Errorf("translation = %+v", out.Translation)
	}
}

func TestStatus(t *testing.T) {
	svc, _ := newTestService(t)

	st := svc.Status()
	if st.GlossaryLoaded || st.ActiveVersion != nil {
		t.Errorf("status before upload = %+v", st)
	}

	if _, err := svc.UploadGlossary(context.Background(), "v1.xlsx", glossaryWorkbook(t, defaultRows)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	st = svc.Status()
	if !st.GlossaryLoaded || st.ActiveVersion == nil || st.ActiveVersion.Entries != 3 {
		t.Errorf("status after upload = %+v", st)
	}
	if st.Provider != "mock" || st.TopK != 3 {
		t.Errorf("status config = %+v", st)
	}
}
