package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const ParserLabel = "parser"

var (
	UplinkReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldtester",
			Name:      "uplink_received_total",
			Help:      "The total number of received uplink messages",
		},
		[]string{ParserLabel},
	)

	DownlinkBuiltCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldtester",
			Name:      "downlink_built_total",
			Help:      "The total number of downlink replies built",
		},
		[]string{ParserLabel},
	)

	DownlinkPublishedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fieldtester",
			Name:      "downlink_published_total",
			Help:      "The total number of downlink replies published to the broker",
		},
	)

	SkippedPortCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fieldtester",
			Name:      "skipped_port_total",
			Help:      "The total number of uplinks skipped for their port",
		},
	)

	MeasurementPublishedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fieldtester",
			Name:      "measurement_published_total",
			Help:      "The total number of measurements published to telemetry",
		},
	)

	ErrorCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fieldtester",
			Name:      "error_total",
			Help:      "The total number of errors occurring",
		},
	)
)
