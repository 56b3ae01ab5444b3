package utils

import "time"

type ApiRequestSample struct {
	Endpoint string
	Micros   float64
}

// MetricChans carries latency samples to the collectors started by
// metric.Init. Sends never block: a sample nobody is waiting for is dropped.
type MetricChans struct {
	ApiRequest         chan ApiRequestSample
	DatabaseRead       chan float64
	DatabaseWrite      chan float64
	DiscordSendMessage chan float64
}

func NewMetricChans() *MetricChans {
	return &MetricChans{
		ApiRequest:         make(chan ApiRequestSample, 16),
		DatabaseRead:       make(chan float64, 4),
		DatabaseWrite:      make(chan float64, 4),
		DiscordSendMessage: make(chan float64, 4),
	}
}

func send[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (m *MetricChans) SendApiRequest(endpoint string, latency time.Duration) {
	send(m.ApiRequest, ApiRequestSample{Endpoint: endpoint, Micros: float64(latency.Microseconds())})
}

func (m *MetricChans) SendDatabaseRead(latency time.Duration) {
	send(m.DatabaseRead, float64(latency.Microseconds()))
}

func (m *MetricChans) SendDatabaseWrite(latency time.Duration) {
	send(m.DatabaseWrite, float64(latency.Microseconds()))
}

// SendDiscordSendMessage reports the time since start.
func (m *MetricChans) SendDiscordSendMessage(start time.Time) {
	send(m.DiscordSendMessage, float64(time.Since(start).Microseconds()))
}
