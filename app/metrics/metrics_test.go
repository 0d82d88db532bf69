package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordArticle(t *testing.T) {
	m := New()

	m.RecordArticle("lenta", OutcomeStored, 100*time.Millisecond)
	m.RecordArticle("lenta", OutcomeStored, 200*time.Millisecond)
	m.RecordArticle("lenta", OutcomeDuplicate, time.Millisecond)

	if got := testutil.ToFloat64(m.ArticlesProcessed.WithLabelValues("lenta", OutcomeStored)); got != 2 {
		t.Errorf("Expected 2 stored articles, got %v", got)
	}
	if got := testutil.ToFloat64(m.ArticlesProcessed.WithLabelValues("lenta", OutcomeDuplicate)); got != 1 {
		t.Errorf("Expected 1 duplicate, got %v", got)
	}
}

func TestRecordCycle(t *testing.T) {
	m := New()

	m.RecordCycle("completed", 7, time.Second)

	if got := testutil.ToFloat64(m.LastCycleStored); got != 7 {
		t.Errorf("Expected last cycle stored 7, got %v", got)
	}
	if got := testutil.ToFloat64(m.CyclesTotal.WithLabelValues("completed")); got != 1 {
		t.Errorf("Expected 1 completed cycle, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.RecordArticle("x", OutcomeFailed, time.Second)
	m.RecordClassification("Спорт")
	m.RecordSourceError("x")
	m.RecordCycle("failed", 0, time.Second)
}

func TestInstancesAreIndependent(t *testing.T) {
	first := New()
	second := New()

	first.RecordClassification("Наука")

	if got := testutil.ToFloat64(second.ArticlesClassified.WithLabelValues("Наука")); got != 0 {
		t.Errorf("Expected independent registries, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordClassification("Спорт")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "news_comb_articles_classified_total") {
		t.Errorf("Expected exposition to include classification counter")
	}
}
