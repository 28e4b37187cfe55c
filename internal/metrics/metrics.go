// Package metrics holds the Prometheus instruments shared across the
// server. Registration happens at package init via promauto; the
// /metrics endpoint is wired in cmd/server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coinpurse"

var (
	// WalletsCreated counts wallets minted, labeled by kind
	// (standard or multisig).
	WalletsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "wallets_created_total",
		Help:      "Wallets created since process start",
	}, []string{"kind"})

	// Transfers counts transfer attempts by final status
	// (completed, rejected).
	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "transfers_total",
		Help:      "Transfer attempts by outcome",
	}, []string{"status"})

	// Proposals counts multisig proposal lifecycle events
	// (created, approved, finalized, rejected, expired).
	Proposals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "multisig",
		Name:      "proposal_events_total",
		Help:      "Multisig proposal lifecycle events",
	}, []string{"event"})

	// TwoFactorEnrollments tracks wallets with 2FA currently enabled.
	TwoFactorEnrollments = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "twofactor",
		Name:      "enrollments",
		Help:      "Wallets with an active TOTP enrollment",
	})

	// WSClients tracks open WebSocket connections across all rooms.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "messaging",
		Name:      "ws_clients",
		Help:      "Open WebSocket connections",
	})
)
