// Package httpapi exposes the wallet service over HTTP: the JSON API,
// the WebSocket rooms, and the admin surface.
package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coinpurse/wallet-sim/internal/alerts"
	"github.com/coinpurse/wallet-sim/internal/engine"
	"github.com/coinpurse/wallet-sim/internal/export"
	"github.com/coinpurse/wallet-sim/internal/keys"
	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/messaging"
	mware "github.com/coinpurse/wallet-sim/internal/middleware"
	"github.com/coinpurse/wallet-sim/internal/multisig"
	"github.com/coinpurse/wallet-sim/internal/rates"
	"github.com/coinpurse/wallet-sim/internal/twofactor"
)

// Options carries the wired services the handlers delegate to.
type Options struct {
	Store       ledger.Store
	Engine      *engine.Engine
	Coordinator *multisig.Coordinator
	Generator   *keys.Generator
	Verifier    *twofactor.Service
	Rates       *rates.Service
	Exporter    *export.Exporter
	Hub         *messaging.Hub
	Notifier    *alerts.Notifier
	JWTSecret   string
	AdminKey    string
}

// Server holds the handler set. All state lives in the injected
// services; the server itself is stateless.
type Server struct {
	store       ledger.Store
	engine      *engine.Engine
	coordinator *multisig.Coordinator
	generator   *keys.Generator
	verifier    *twofactor.Service
	rates       *rates.Service
	exporter    *export.Exporter
	hub         *messaging.Hub
	notifier    *alerts.Notifier
	jwtSecret   []byte
	adminKey    string
}

func NewServer(opts Options) *Server {
	return &Server{
		store:       opts.Store,
		engine:      opts.Engine,
		coordinator: opts.Coordinator,
		generator:   opts.Generator,
		verifier:    opts.Verifier,
		rates:       opts.Rates,
		exporter:    opts.Exporter,
		hub:         opts.Hub,
		notifier:    opts.Notifier,
		jwtSecret:   []byte(opts.JWTSecret),
		adminKey:    opts.AdminKey,
	}
}

// Register wires every route onto e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "coinpurse"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/readyz", s.readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Credential endpoints get per-IP rate limiting.
	limited := e.Group("", echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))
	limited.POST("/create_wallet", s.createWallet)
	limited.POST("/access_wallet", s.accessWallet)

	e.GET("/get_balance/:address", s.getBalance)
	e.GET("/get_transactions/:address", s.getTransactions)
	e.GET("/get_transaction/:hash", s.getTransaction)
	e.POST("/send_transaction", s.sendTransaction)

	e.POST("/create_multisig", s.createMultisig)
	e.GET("/multisig/:address/owners", s.multisigOwners)
	e.GET("/multisig/:address/pending", s.multisigPending)

	e.POST("/verify_2fa", s.verifyTwoFactor)
	e.POST("/restore_wallet", s.restoreWallet)

	e.GET("/exchange_rates", s.exchangeRates)
	e.POST("/exchange_rates/refresh", s.refreshRates)
	e.POST("/convert", s.convert)

	e.GET("/generate_qr/:address", s.generateQR)
	e.GET("/export/:address/:format", s.exportTransactions)

	e.GET("/ws/wallet/:address", s.wsWallet)
	e.GET("/ws/rates", s.wsRates)

	// Routes acting on behalf of one wallet require its bearer token.
	guarded := e.Group("", mware.WalletGuard(s.jwtSecret))
	guarded.GET("/wallet/me", s.walletMe)
	guarded.POST("/multisig/propose", s.proposeTransfer)
	guarded.POST("/multisig/approve", s.approveProposal)
	guarded.POST("/multisig/reject", s.rejectProposal)
	guarded.POST("/enable_2fa", s.enableTwoFactor)
	guarded.POST("/disable_2fa", s.disableTwoFactor)
	guarded.POST("/backup_wallet", s.backupWallet)

	admin := e.Group("/admin", mware.AdminGuard(s.adminKey))
	admin.GET("/wallets", s.adminWallets)
	admin.GET("/stats", s.adminStats)
	admin.POST("/adjust", s.adminAdjust)
}

func (s *Server) readyz(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "store unreachable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}

func (s *Server) wsWallet(c echo.Context) error {
	return s.hub.ServeRoom(c, messaging.WalletRoom(c.Param("address")))
}

func (s *Server) wsRates(c echo.Context) error {
	return s.hub.ServeRoom(c, messaging.RatesRoom)
}
