package bridge

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/fieldtest"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/lns"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/metrics"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/telemetry"
)

type Server struct {
	appName string
	logger  log.Logger
	adapter lns.Adapter
	sink    telemetry.Sink
	config  Config
}

type Config struct {
	// forward the aggregated values to the telemetry sink
	PublishMeasurements bool
}

func NewServer(appName string, logger log.Logger, adapter lns.Adapter, sink telemetry.Sink, cfg Config) *Server {
	logger = log.With(logger, "component", "bridge")
	return &Server{
		appName: appName,
		logger:  logger,
		adapter: adapter,
		sink:    sink,
		config:  cfg,
	}
}

// Handle runs the pipeline for one uplink message: extract, decode,
// aggregate, encode the reply. It returns a nil downlink when the uplink
// does not call for one.
func (s *Server) Handle(ctx context.Context, topic string, body []byte) (*lns.Downlink, error) {
	metrics.UplinkReceivedCounter.WithLabelValues(s.adapter.Name()).Inc()

	up, err := s.adapter.ExtractUplink(topic, body)
	if errors.Is(err, lns.ErrUnsupportedPort) {
		metrics.SkippedPortCounter.Inc()
		level.Debug(s.logger).Log("msg", "skipping uplink", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	level.Debug(s.logger).Log("msg", "received uplink",
		"port", up.Port,
		"fcnt", up.FCnt,
		"payload", hex.EncodeToString(up.Payload))

	fix, err := fieldtest.DecodePayload(up.Payload)
	if err != nil {
		return nil, fmt.Errorf("can't decode payload 0x%s: %w", hex.EncodeToString(up.Payload), err)
	}

	sum := fieldtest.Aggregate(fix, up.Gateways)
	level.Debug(s.logger).Log("msg", "processed uplink",
		"has_fix", fix.HasFix,
		"num_gateways", sum.NumGateways,
		"min_rssi", sum.MinRSSI,
		"max_rssi", sum.MaxRSSI,
		"min_distance", sum.MinDistance,
		"max_distance", sum.MaxDistance)

	if s.config.PublishMeasurements {
		s.publish(sum)
	}

	payload, ok := fieldtest.EncodeDownlink(sum, up.Port, up.FCnt)
	if !ok {
		return nil, nil
	}

	down, err := s.adapter.BuildDownlink(up, payload)
	if err != nil {
		return nil, err
	}
	metrics.DownlinkBuiltCounter.WithLabelValues(s.adapter.Name()).Inc()
	return down, nil
}

// publish forwards the summary to the telemetry sink, one measurement per
// value. The GPS position is only published with a fix.
func (s *Server) publish(sum fieldtest.Summary) {
	now := time.Now().UnixNano()

	ms := []telemetry.Measurement{
		{Name: "gps.hdop", Value: sum.Fix.HDOP, Timestamp: now},
		{Name: "gps.sats", Value: float64(sum.Fix.Satellites), Timestamp: now},
	}
	if sum.Fix.HasFix {
		ms = append(ms,
			telemetry.Measurement{Name: "gps.latitude", Value: sum.Fix.Latitude, Timestamp: now},
			telemetry.Measurement{Name: "gps.longitude", Value: sum.Fix.Longitude, Timestamp: now},
			telemetry.Measurement{Name: "gps.altitude", Value: float64(sum.Fix.Altitude), Timestamp: now},
			telemetry.Measurement{Name: "gps.accuracy", Value: sum.Fix.Accuracy, Timestamp: now},
		)
	}
	ms = append(ms,
		telemetry.Measurement{Name: "gateway.min_distance", Value: float64(sum.MinDistance), Timestamp: now},
		telemetry.Measurement{Name: "gateway.max_distance", Value: float64(sum.MaxDistance), Timestamp: now},
		telemetry.Measurement{Name: "gateway.min_rssi", Value: float64(sum.MinRSSI), Timestamp: now},
		telemetry.Measurement{Name: "gateway.max_rssi", Value: float64(sum.MaxRSSI), Timestamp: now},
		telemetry.Measurement{Name: "gateway.num_gateways", Value: float64(sum.NumGateways), Timestamp: now},
	)

	for _, m := range ms {
		if err := s.sink.Publish(m); err != nil {
			level.Error(s.logger).Log("msg", "can't publish measurement", "name", m.Name, "error", err)
			continue
		}
		metrics.MeasurementPublishedCounter.Inc()
	}
}
