// Package websocket - websocket/metrics.go
package websocket

import (
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"

	"school-trips/logger"
)

// Namespace for all school-trips metrics
var metricsNamespace = "SchoolTrips"

// Reuse a single CloudWatch client for all metrics calls
var cwClient = cloudwatch.New(session.Must(session.NewSession()))

// metricsEnabled gates CloudWatch calls so local runs stay silent.
var metricsEnabled = os.Getenv("METRICS_ENABLED") == "true"

// PublishClientConnections pushes the current WebSocket connection count.
func PublishClientConnections(count int) {
	putMetric("ClientConnections", float64(count), "Count")
}

// PublishResyncLatency pushes how long a full cache resync took (in ms).
func PublishResyncLatency(latencyMs float64) {
	putMetric("ResyncLatencyMs", latencyMs, "Milliseconds")
}

// PublishStoreWriteBacklog pushes a gauge for queued database writes.
func PublishStoreWriteBacklog(depth int) {
	putMetric("StoreWriteBacklog", float64(depth), "Count")
}

// -----------------------------------------------------------
// internal helper function to package up CloudWatch calls
// -----------------------------------------------------------
func putMetric(metricName string, value float64, unit string) {
	if !metricsEnabled {
		return
	}
	_, err := cwClient.PutMetricData(&cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricsNamespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Timestamp:  aws.Time(time.Now()),
				Value:      aws.Float64(value),
				Unit:       aws.String(unit),
			},
		},
	})

	if err != nil {
		logger.Error.Printf("[putMetric] CloudWatch metric failed (%s): %v", metricName, err)
	}
}
