package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	events []ScanEvent
	err    error
}

func (r *recordingSink) RecordScanEvent(_ context.Context, event ScanEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func TestAnalysisService_AnalyzeURLRecordsScan(t *testing.T) {
	sink := &recordingSink{}
	svc := NewAnalysisService(sink, zap.NewNop())

	v := svc.AnalyzeURL(context.Background(), 7, "https://example.com")

	assert.Equal(t, RiskSafe, v.Category)
	require.Len(t, sink.events, 1)
	assert.Equal(t, int64(7), sink.events[0].OrgID)
	assert.Equal(t, "example.com", sink.events[0].Domain)
	assert.Equal(t, RiskSafe, sink.events[0].Category)
	assert.Equal(t, "analyze_url", sink.events[0].Source)
}

func TestAnalysisService_SinkFailureDoesNotAffectVerdict(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	svc := NewAnalysisService(sink, zap.NewNop())

	v := svc.AnalyzeURL(context.Background(), 7, "http://192.168.0.1/login")

	assert.Equal(t, RiskDangerous, v.Category)
	assert.Equal(t, 100, v.Score)
}

func TestAnalysisService_InvalidURLRecordedAsInvalidDomain(t *testing.T) {
	sink := &recordingSink{}
	svc := NewAnalysisService(sink, zap.NewNop())

	svc.AnalyzeURL(context.Background(), 7, "not a url")

	require.Len(t, sink.events, 1)
	assert.Equal(t, "invalid", sink.events[0].Domain)
	assert.Equal(t, RiskSuspicious, sink.events[0].Category)
}

func TestAnalysisService_NilSinkAndZeroOrgSkipRecording(t *testing.T) {
	svc := NewAnalysisService(nil, zap.NewNop())
	v := svc.AnalyzeURL(context.Background(), 0, "https://example.com")
	assert.Equal(t, RiskSafe, v.Category)

	sink := &recordingSink{}
	svc = NewAnalysisService(sink, zap.NewNop())
	svc.AnalyzeURL(context.Background(), 0, "https://example.com")
	assert.Empty(t, sink.events)
}

func TestAnalysisService_AnalyzeEmail(t *testing.T) {
	sink := &recordingSink{}
	svc := NewAnalysisService(sink, zap.NewNop())

	ev, err := svc.AnalyzeEmail(context.Background(), 7,
		SenderIdentity{
			DisplayName:   "IT Support",
			FromEmail:     "it-support@gmail.com",
			ReplyToEmails: []string{"helpdesk@company.com"},
		},
		[]string{"https://google.com"})
	require.NoError(t, err)

	assert.Equal(t, RiskSuspicious, ev.Overall.Category)
	assert.Equal(t, ev.Sender.Score, ev.Overall.Score)
	require.Len(t, ev.Links, 1)
	assert.Equal(t, RiskSafe, ev.Links[0].Verdict.Category)

	// One scan event per link.
	require.Len(t, sink.events, 1)
	assert.Equal(t, "analyze_email", sink.events[0].Source)
	assert.Equal(t, "google.com", sink.events[0].Domain)
}

func TestAnalysisService_AnalyzeEmailNoLinks(t *testing.T) {
	svc := NewAnalysisService(nil, zap.NewNop())

	_, err := svc.AnalyzeEmail(context.Background(), 7, SenderIdentity{}, nil)
	assert.ErrorIs(t, err, ErrNoLinks)
}

func TestAnalysisService_CategoryOverride(t *testing.T) {
	svc := NewAnalysisService(nil, zap.NewNop())
	svc.SetCategoryOverride(func(rawURL string) (RiskCategory, bool) {
		return RiskDangerous, true
	})

	v := svc.AnalyzeURL(context.Background(), 0, "https://example.com")

	assert.Equal(t, RiskDangerous, v.Category)
	assert.Equal(t, 100, v.Score)
}
