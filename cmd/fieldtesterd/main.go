package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/namsral/flag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/bridge"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/broker"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/lns"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/metrics"
	"github.com/FranciscoLozCoding/plugin-lorawan-field-tester/telemetry"
)

const appName = "fieldtesterd"

var (
	version = "no version from LDFLAGS"

	parserType     = flag.String("parserType", lns.ChirpStackName, "the network server flavor, TheThingsStack_v3 or ChirpStack_v3+")
	devEUI         = flag.String("devEUI", "", "the field tester device EUI as registered in the network server")
	subscribeTopic = flag.String("subscribeTopic", "", "the uplink topic filter, derived from parserType and devEUI when empty")

	publish         = flag.Bool("publish", false, "forward the aggregated values to the telemetry topics")
	telemetryPrefix = flag.String("telemetryPrefix", "telemetry", "topic prefix for the telemetry records")

	mqttHost     = flag.String("mqttHost", "localhost", "MQTT broker host")
	mqttPort     = flag.Int("mqttPort", 1883, "MQTT broker port")
	mqttUsername = flag.String("mqttUsername", "", "MQTT broker username")
	mqttPassword = flag.String("mqttPassword", "", "MQTT broker password")
	mqttClientID = flag.String("mqttClientID", appName, "MQTT client id")

	logLevel        = flag.String("logLevel", "debug", "log level: debug, info, warn, error")
	httpMetricsPort = flag.Int("httpMetricsPort", 8888, "http port")
	healthPort      = flag.Int("healthPort", 6666, "grpc health port")

	httpMetricsServer *http.Server
	grpcHealthServer  *grpc.Server
)

func main() {
	flag.Parse()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.DefaultCaller, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = level.NewFilter(logger, allowedLevel(*logLevel))

	stdlog.SetOutput(log.NewStdlibAdapter(logger))

	level.Info(logger).Log("msg", "Starting app", "version", version, "parser", *parserType)

	if *devEUI == "" {
		level.Error(logger).Log("msg", "devEUI is required, see -help")
		os.Exit(2)
	}

	adapter, err := lns.ForName(*parserType)
	if err != nil {
		level.Error(logger).Log("msg", "can't configure the uplink parser", "error", err)
		os.Exit(2)
	}

	topic := *subscribeTopic
	if topic == "" {
		topic = adapter.SubscribeTopic(*devEUI)
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)

	// catch termination
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// MQTT broker
	client, err := broker.NewClient(logger, broker.Config{
		Host:     *mqttHost,
		Port:     *mqttPort,
		Username: *mqttUsername,
		Password: *mqttPassword,
		ClientID: *mqttClientID,
	})
	if err != nil {
		level.Error(logger).Log("msg", "can't connect to the MQTT broker", "error", err, "host", *mqttHost)
		os.Exit(2)
	}

	var sink telemetry.Sink = telemetry.NopSink{}
	if *publish {
		sink = telemetry.NewMQTTSink(client, *telemetryPrefix)
	}

	s := bridge.NewServer(appName, logger, adapter, sink, bridge.Config{PublishMeasurements: *publish})

	// gRPC Health Server
	healthServer := health.NewServer()
	g.Go(func() error {
		grpcHealthServer = grpc.NewServer()

		healthpb.RegisterHealthServer(grpcHealthServer, healthServer)

		haddr := fmt.Sprintf(":%d", *healthPort)
		hln, err := net.Listen("tcp", haddr)
		if err != nil {
			level.Error(logger).Log("msg", "gRPC Health server: failed to listen", "error", err)
			os.Exit(2)
		}
		level.Info(logger).Log("msg", fmt.Sprintf("gRPC health server serving at %s", haddr))
		return grpcHealthServer.Serve(hln)
	})

	// web server metrics
	g.Go(func() error {
		r := mux.NewRouter()
		r.Handle("/metrics", promhttp.Handler())
		r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "OK")
		})

		httpMetricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", *httpMetricsPort),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			Handler:      handlers.CompressHandler(r),
		}
		level.Info(logger).Log("msg", fmt.Sprintf("HTTP Metrics server serving at :%d", *httpMetricsPort))

		if err := httpMetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	// uplink subscription
	g.Go(func() error {
		logger := log.With(logger, "component", "mqttclient")

		err := client.Subscribe(topic, func(topic string, payload []byte) {
			down, err := s.Handle(ctx, topic, payload)
			if err != nil {
				metrics.ErrorCounter.Inc()
				level.Error(logger).Log("msg", "can't process uplink", "topic", topic, "error", err)
				return
			}
			if down == nil {
				return
			}
			if err := client.Publish(down.Topic, down.Body); err != nil {
				metrics.ErrorCounter.Inc()
				level.Error(logger).Log("msg", "can't publish downlink", "topic", down.Topic, "error", err)
				return
			}
			metrics.DownlinkPublishedCounter.Inc()
			level.Debug(logger).Log("msg", "published downlink", "topic", down.Topic)
		})
		if err != nil {
			level.Error(logger).Log("msg", "can't subscribe to uplink messages", "topic", topic, "error", err)
			return err
		}
		level.Info(logger).Log("msg", "subscribed to uplink messages", "topic", topic)

		healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_SERVING)

		<-ctx.Done()
		level.Info(logger).Log("msg", "unsubscribing from uplink messages")
		client.Disconnect()
		return nil
	})

	select {
	case <-interrupt:
		cancel()
		break
	case <-ctx.Done():
		break
	}

	level.Warn(logger).Log("msg", "received shutdown signal")

	healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpMetricsServer != nil {
		_ = httpMetricsServer.Shutdown(shutdownCtx)
	}

	if grpcHealthServer != nil {
		grpcHealthServer.GracefulStop()
	}

	err = g.Wait()
	if err != nil {
		level.Error(logger).Log("msg", "server returning an error", "error", err)
		os.Exit(2)
	}
}

func allowedLevel(s string) level.Option {
	switch s {
	case "error":
		return level.AllowError()
	case "warn":
		return level.AllowWarn()
	case "info":
		return level.AllowInfo()
	default:
		return level.AllowDebug()
	}
}
