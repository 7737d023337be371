package snapshot

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lendguard/indexer/src/utils/config"
	"github.com/lendguard/indexer/src/utils/model"
	monitor_indexer "github.com/lendguard/indexer/src/utils/monitoring/indexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestNotifierTestSuite(t *testing.T) {
	suite.Run(t, new(NotifierTestSuite))
}

type NotifierTestSuite struct {
	suite.Suite
	config  *config.Config
	monitor *monitor_indexer.Monitor
}

func (s *NotifierTestSuite) SetupTest() {
	s.config = config.Default()
	s.monitor = monitor_indexer.NewMonitor().WithMaxHistorySize(5)
}

func alertOf(market string, severity uint8) *model.MarketSnapshot {
	return &model.MarketSnapshot{Market: market, OverallSeverity: severity}
}

func (s *NotifierTestSuite) TestFlushWithoutWebhookPassesThrough() {
	notifier := NewNotifier(s.config).
		WithMonitor(s.monitor)

	alerts := []*model.MarketSnapshot{alertOf("usdc", 2), alertOf("weth", 3)}
	out, err := notifier.flush(alerts)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), alerts, out)
	assert.Equal(s.T(), uint64(0), s.monitor.Report.Webhook.State.DigestsDelivered.Load())
}

func (s *NotifierTestSuite) TestFlushEmptyBatchIsNoop() {
	notifier := NewNotifier(s.config).
		WithMonitor(s.monitor)

	out, err := notifier.flush(nil)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), out)
}

func (s *NotifierTestSuite) TestDeliversDigest() {
	var received AlertDigest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(s.T(), err)
		require.NoError(s.T(), json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s.config.Snapshot.WebhookUrl = server.URL
	notifier := NewNotifier(s.config).
		WithMonitor(s.monitor)

	notifier.deliver([]*model.MarketSnapshot{alertOf("usdc", 2), alertOf("weth", 3)})

	assert.Equal(s.T(), 2, received.Count)
	assert.Equal(s.T(), uint8(3), received.MaxSeverity)
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Webhook.State.DigestsDelivered.Load())
}

func (s *NotifierTestSuite) TestCountsRejectedDigest() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s.config.Snapshot.WebhookUrl = server.URL
	notifier := NewNotifier(s.config).
		WithMonitor(s.monitor)

	notifier.deliver([]*model.MarketSnapshot{alertOf("usdc", 2)})

	assert.Equal(s.T(), uint64(0), s.monitor.Report.Webhook.State.DigestsDelivered.Load())
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Webhook.Errors.Delivery.Load())
}
