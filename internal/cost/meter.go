package cost

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodlang/tarjama/internal/models"
)

// Sink receives every recorded usage entry, typically for persistence.
// A nil sink is fine; sink errors are reported to the caller of Record
// but never block metering.
type Sink interface {
	AppendUsage(rec models.UsageRecord) error
}

// Meter accumulates token usage and cost per endpoint. Recent activity is
// kept in a bounded in-memory log; aggregate totals are never evicted.
type Meter struct {
	pricing     Pricing
	activityCap int
	recentLimit int
	sink        Sink

	mu         sync.Mutex
	requests   int
	embTokens  int
	compTokens int
	byEndpoint map[string]models.EndpointUsage
	activity   []models.UsageRecord
}

func NewMeter(pricing Pricing, activityCap, recentLimit int, sink Sink) *Meter {
	if activityCap < 1 {
		activityCap = 1
	}
	if recentLimit < 1 {
		recentLimit = 1
	}
	return &Meter{
		pricing:     pricing,
		activityCap: activityCap,
		recentLimit: recentLimit,
		sink:        sink,
		byEndpoint:  make(map[string]models.EndpointUsage),
	}
}

func (m *Meter) Pricing() Pricing { return m.pricing }

// Record registers one request's token usage. The record's cost, id and
// timestamp are filled in here.
func (m *Meter) Record(endpoint, requestType string, embeddingTokens, completionTokens int) (models.UsageRecord, error) {
	rec := models.UsageRecord{
		ID:               uuid.NewString(),
		Endpoint:         endpoint,
		RequestType:      requestType,
		EmbeddingTokens:  embeddingTokens,
		CompletionTokens: completionTokens,
		Cost:             m.pricing.Cost(embeddingTokens, completionTokens),
		Timestamp:        time.Now().UTC(),
	}

	m.mu.Lock()
	m.requests++
	m.embTokens += embeddingTokens
	m.compTokens += completionTokens

	eu := m.byEndpoint[endpoint]
	eu.Requests++
	eu.Tokens += embeddingTokens + completionTokens
	eu.Cost += rec.Cost
	m.byEndpoint[endpoint] = eu

	m.activity = append(m.activity, rec)
	if len(m.activity) > m.activityCap {
		m.activity = m.activity[len(m.activity)-m.activityCap:]
	}
	m.mu.Unlock()

	if m.sink != nil {
		if err := m.sink.AppendUsage(rec); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Summary returns the running totals only.
func (m *Meter) Summary() models.UsageSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := m.embTokens + m.compTokens
	return models.UsageSummary{
		TotalRequests: m.requests,
		TotalTokens:   tokens,
		TotalCost:     m.pricing.EmbeddingCost(m.embTokens) + m.pricing.CompletionCost(m.compTokens),
	}
}

// Snapshot returns aggregate statistics plus the most recent activity,
// newest first.
func (m *Meter) Snapshot() models.UsageStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := models.UsageStats{
		TotalRequests:    m.requests,
		EmbeddingTokens:  m.embTokens,
		CompletionTokens: m.compTokens,
		TotalTokens:      m.embTokens + m.compTokens,
		EmbeddingCost:    m.pricing.EmbeddingCost(m.embTokens),
		CompletionCost:   m.pricing.CompletionCost(m.compTokens),
		ByEndpoint:       make(map[string]models.EndpointUsage, len(m.byEndpoint)),
	}
	stats.TotalCost = stats.EmbeddingCost + stats.CompletionCost
	for k, v := range m.byEndpoint {
		stats.ByEndpoint[k] = v
	}

	n := m.recentLimit
	if n > len(m.activity) {
		n = len(m.activity)
	}
	stats.Recent = make([]models.UsageRecord, n)
	for i := 0; i < n; i++ {
		stats.Recent[i] = m.activity[len(m.activity)-1-i]
	}
	return stats
}
