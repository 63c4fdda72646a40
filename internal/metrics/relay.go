// Package metrics holds the prometheus collectors of the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gomoku_relay"

type Relay struct {
	ConnectedPeers prometheus.Gauge
	OpenChannels   prometheus.Gauge
	Frames         *prometheus.CounterVec
	DialFailures   *prometheus.CounterVec
}

func NewRelay(registerer prometheus.Registerer) *Relay {
	factory := promauto.With(registerer)

	return &Relay{
		ConnectedPeers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_peers",
			Help:      "Websocket peers currently attached to this relay.",
		}),
		OpenChannels: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_channels",
			Help:      "Host channels with a guest attached.",
		}),
		Frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_forwarded_total",
			Help:      "Frames forwarded between peers.",
		}, []string{"kind"}),
		DialFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dial_failures_total",
			Help:      "Registrations and dials the relay refused.",
		}, []string{"reason"}),
	}
}
