package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curatrip/curatrip-server/internal/types"
)

// The benchmarks reuse the stub services from the e2e suite so they measure
// routing, decoding, and encoding overhead rather than model or DB latency.

func benchRequest(b *testing.B, handler http.Handler, method, path string, body []byte) {
	b.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		b.Fatalf("unexpected status %d for %s %s", rec.Code, method, path)
	}
}

func mustMarshal(b *testing.B, payload any) []byte {
	b.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		b.Fatalf("marshal request body: %v", err)
	}
	return body
}

// BenchmarkChatEndpoint benchmarks the conversational chat endpoint
func BenchmarkChatEndpoint(b *testing.B) {
	handler, session, _ := buildTestRouter(nil)
	path := fmt.Sprintf("/api/v1/sessions/%s/chat", session.EstimateID)
	body := mustMarshal(b, map[string]any{"message": "what should we do on day two?"})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		benchRequest(b, handler, http.MethodPost, path, body)
	}
}

// BenchmarkModificationEndpoint benchmarks a free-text change request
func BenchmarkModificationEndpoint(b *testing.B) {
	handler, session, _ := buildTestRouter(nil)
	path := fmt.Sprintf("/api/v1/sessions/%s/itinerary/modifications", session.EstimateID)
	body := mustMarshal(b, map[string]any{"message": "remove the market on day 1"})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		benchRequest(b, handler, http.MethodPost, path, body)
	}
}

// BenchmarkModificationPreResolved benchmarks a change request that skips
// intent resolution by shipping the typed action in the body
func BenchmarkModificationPreResolved(b *testing.B) {
	handler, session, _ := buildTestRouter(nil)
	path := fmt.Sprintf("/api/v1/sessions/%s/itinerary/modifications", session.EstimateID)
	body := mustMarshal(b, map[string]any{
		"intent": types.ModificationIntent{
			Action:     types.ActionRemoveItem,
			ItemName:   "Gwangjang Market",
			Confidence: 0.95,
		},
	})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		benchRequest(b, handler, http.MethodPost, path, body)
	}
}

// BenchmarkRegenerateDay benchmarks the single-day rebuild endpoint
func BenchmarkRegenerateDay(b *testing.B) {
	handler, session, _ := buildTestRouter(nil)
	path := fmt.Sprintf("/api/v1/sessions/%s/itinerary/days/2/regenerate", session.EstimateID)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		benchRequest(b, handler, http.MethodPost, path, nil)
	}
}

// BenchmarkItineraryRead benchmarks the itinerary snapshot endpoint
func BenchmarkItineraryRead(b *testing.B) {
	handler, session, _ := buildTestRouter(nil)
	path := fmt.Sprintf("/api/v1/sessions/%s/itinerary", session.EstimateID)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		benchRequest(b, handler, http.MethodGet, path, nil)
	}
}

// BenchmarkCalendarExport benchmarks the iCalendar export endpoint
func BenchmarkCalendarExport(b *testing.B) {
	handler, session, _ := buildTestRouter(nil)
	path := fmt.Sprintf("/api/v1/sessions/%s/itinerary/calendar.ics", session.EstimateID)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		benchRequest(b, handler, http.MethodGet, path, nil)
	}
}

// BenchmarkHealthz benchmarks the liveness endpoint as a routing baseline
func BenchmarkHealthz(b *testing.B) {
	handler, _, _ := buildTestRouter(nil)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		benchRequest(b, handler, http.MethodGet, "/healthz", nil)
	}
}

// BenchmarkConcurrentChat benchmarks concurrent chat requests
func BenchmarkConcurrentChat(b *testing.B) {
	handler, session, _ := buildTestRouter(nil)
	path := fmt.Sprintf("/api/v1/sessions/%s/chat", session.EstimateID)
	body := mustMarshal(b, map[string]any{"message": "swap the palace for a museum"})

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				b.Errorf("unexpected status %d", rec.Code)
			}
		}
	})
}
