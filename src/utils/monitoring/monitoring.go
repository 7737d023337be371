package monitoring

import (
	"github.com/lendguard/indexer/src/utils/monitoring/report"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Monitor gives components a place to store counters and the REST server
// something to serve.
type Monitor interface {
	GetReport() *report.Report
	GetPrometheusCollector() prometheus.Collector
	OnGetState(c *gin.Context)
	OnGetHealth(c *gin.Context)
}
