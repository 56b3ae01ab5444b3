package metric

import (
	"log/slog"
	"time"

	"eventdesk/src-client/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// register registers c with the default registry, tolerating a collector
// left over from a previous Init.
func register[C prometheus.Collector](name string, c C) C {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		slog.Error("can't register "+name+" metric", "error", err)
		return c
	}
	slog.Debug(name + " metric registered")
	return c
}

func unregister(name string, c prometheus.Collector) {
	switch prometheus.Unregister(c) {
	case true:
		slog.Debug(name + " metric unregistered")
	case false:
		slog.Warn(name + " metric not registered")
	}
}

// gauge feeds a gauge from ch and resets it to 0 when no sample arrived
// for clearInterval.
func gauge(as *utils.AppState, name, help string, ch <-chan float64, clearInterval time.Duration) {
	g := register(name, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}))
	g.Set(0)
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(clearInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-gracefulShutdownCh:
				unregister(name, g)
				return
			case latency := <-ch:
				g.Set(latency)
				clearTicker.Reset(clearInterval)
			case <-clearTicker.C:
				g.Set(0)
			}
		}
	}()
}

// polled sets a gauge to the result of probe every interval.
func polled(as *utils.AppState, name, help string, interval time.Duration, probe func() (float64, error)) {
	g := register(name, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}))
	g.Set(0)
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gracefulShutdownCh:
				unregister(name, g)
				return
			case <-ticker.C:
				value, err := probe()
				if err != nil {
					slog.Error("can't collect "+name, "error", err)
					continue
				}
				g.Set(value)
			}
		}
	}()
}

func apiRequest(as *utils.AppState, clearInterval time.Duration) {
	name := "eventdesk_api_request_microsec"
	vec := register(name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: "The latency of the last request to the events backend in microseconds",
	}, []string{"endpoint"}))
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(clearInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-gracefulShutdownCh:
				unregister(name, vec)
				return
			case sample := <-as.MetricChans.ApiRequest:
				vec.WithLabelValues(sample.Endpoint).Set(sample.Micros)
				clearTicker.Reset(clearInterval)
			case <-clearTicker.C:
				vec.Reset()
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := tickerInterval * 2

	apiRequest(as, clearTickerInterval)
	gauge(as, "eventdesk_database_read_microsec",
		"The latency of a journal read in microseconds",
		as.MetricChans.DatabaseRead, clearTickerInterval)
	gauge(as, "eventdesk_database_write_microsec",
		"The latency of a journal write in microseconds",
		as.MetricChans.DatabaseWrite, clearTickerInterval)
	gauge(as, "eventdesk_discord_send_message_microsec",
		"The latency of a discord message send in microseconds",
		as.MetricChans.DiscordSendMessage, clearTickerInterval)

	polled(as, "eventdesk_database_empty_read_microsec",
		"The latency of an empty database read in microseconds",
		tickerInterval, func() (float64, error) {
			latency, err := database(as)
			return float64(latency.Microseconds()), err
		})
	polled(as, "eventdesk_query_cache_entries",
		"The number of entries held by the query cache",
		tickerInterval, func() (float64, error) {
			return float64(as.Cache.Len()), nil
		})
	if as.DgSession != nil {
		polled(as, "eventdesk_discord_heartbeat_latency_microsec",
			"The latency of a discord heartbeat in microseconds",
			tickerInterval, func() (float64, error) {
				return float64(as.DgSession.HeartbeatLatency().Microseconds()), nil
			})
	}
}
