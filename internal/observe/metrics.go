package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	onlineClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_clients",
		Help: "Number of registered client connections",
	})

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total relayed chat messages by origin",
		},
		[]string{"type"}, // local|remote
	)

	deliveriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_broadcast_deliveries_total",
		Help: "Total lines successfully written to recipients",
	})

	prunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_pruned_clients_total",
		Help: "Total connections dropped after a failed broadcast write",
	})

	acceptErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_accept_errors_total",
		Help: "Total failed accept calls",
	})

	busErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_bus_errors_total",
			Help: "Total cluster bus errors by operation",
		},
		[]string{"op"}, // publish|consume
	)
)

func init() {
	prometheus.MustRegister(
		onlineClients,
		messagesTotal,
		deliveriesTotal,
		prunedTotal,
		acceptErrorsTotal,
		busErrorsTotal,
	)
}

func IncMessage(kind string) { messagesTotal.WithLabelValues(kind).Inc() }
func AddDeliveries(n int)    { deliveriesTotal.Add(float64(n)) }
func IncPruned()             { prunedTotal.Inc() }
func IncAcceptError()        { acceptErrorsTotal.Inc() }
func IncBusError(op string)  { busErrorsTotal.WithLabelValues(op).Inc() }
func SetOnline(n int)        { onlineClients.Set(float64(n)) }
