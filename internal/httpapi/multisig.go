package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/messaging"
	"github.com/coinpurse/wallet-sim/internal/metrics"
	mware "github.com/coinpurse/wallet-sim/internal/middleware"
	"github.com/coinpurse/wallet-sim/internal/multisig"
)

// defaultRequiredSignatures applies when a creation request leaves the
// threshold unset.
const defaultRequiredSignatures = 2

func (s *Server) createMultisig(c echo.Context) error {
	var req struct {
		Owners             []string `json:"owners"`
		RequiredSignatures int      `json:"required_signatures"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	if req.RequiredSignatures == 0 {
		req.RequiredSignatures = defaultRequiredSignatures
	}

	w, privateKey, mnemonic, err := s.coordinator.CreateWallet(c.Request().Context(), req.Owners, req.RequiredSignatures)
	if err != nil {
		return fail(c, err)
	}

	metrics.WalletsCreated.WithLabelValues("multisig").Inc()
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Multi-signature wallet created successfully",
		"data": echo.Map{
			"address":             w.Address,
			"private_key":         privateKey,
			"mnemonic":            mnemonic,
			"balance":             w.Balance,
			"owners":              w.Owners,
			"required_signatures": w.RequiredSignatures,
			"created_at":          w.CreatedAt,
		},
	})
}

func (s *Server) multisigOwners(c echo.Context) error {
	w, err := s.store.GetWallet(c.Request().Context(), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	if !w.IsMultisig {
		return fail(c, ledger.ErrNotMultisig)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"address":             w.Address,
			"owners":              w.Owners,
			"required_signatures": w.RequiredSignatures,
		},
	})
}

func (s *Server) multisigPending(c echo.Context) error {
	address := c.Param("address")
	if _, err := s.store.GetWallet(c.Request().Context(), address); err != nil {
		return fail(c, err)
	}
	pending, err := s.coordinator.Pending(c.Request().Context(), address)
	if err != nil {
		return fail(c, err)
	}
	if pending == nil {
		pending = []*multisig.PendingApproval{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": pending})
}

func (s *Server) proposeTransfer(c echo.Context) error {
	proposer := mware.WalletAddress(c)
	var req struct {
		Sender   string        `json:"sender_address"`
		Receiver string        `json:"receiver_address"`
		Amount   ledger.Amount `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "No data provided")
	}
	req.Sender = strings.TrimSpace(req.Sender)
	req.Receiver = strings.TrimSpace(req.Receiver)
	if req.Sender == "" || req.Receiver == "" {
		return badRequest(c, "Sender and receiver are required")
	}

	p, err := s.coordinator.Propose(c.Request().Context(), req.Sender, req.Receiver, req.Amount, proposer)
	if err != nil {
		return fail(c, err)
	}

	metrics.Proposals.WithLabelValues("created").Inc()
	s.notifier.ApprovalRequested(p)
	s.hub.Broadcast(messaging.WalletRoom(p.Draft.Sender), messaging.EventProposalCreated, p)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Transfer proposed",
		"data":    p,
	})
}

func (s *Server) approveProposal(c echo.Context) error {
	owner := mware.WalletAddress(c)
	var req struct {
		ProposalID string `json:"proposal_id"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ProposalID) == "" {
		return badRequest(c, "Proposal ID is required")
	}

	p, err := s.coordinator.Approve(c.Request().Context(), strings.TrimSpace(req.ProposalID), owner)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			metrics.Proposals.WithLabelValues("rejected").Inc()
		}
		return fail(c, err)
	}

	metrics.Proposals.WithLabelValues("approved").Inc()
	room := messaging.WalletRoom(p.Draft.Sender)

	if p.Status == multisig.StatusFinalized {
		metrics.Proposals.WithLabelValues("finalized").Inc()
		metrics.Transfers.WithLabelValues(ledger.StatusCompleted).Inc()
		s.hub.Broadcast(room, messaging.EventProposalFinalized, p)
		if tx, err := s.store.TransactionByHash(c.Request().Context(), p.FinalHash); err == nil {
			s.announceTransfer(c.Request().Context(), tx)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "Proposal finalized, transfer applied",
			"data":    p,
		})
	}

	s.hub.Broadcast(room, messaging.EventProposalApproved, p)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Approval recorded",
		"data":    p,
	})
}

func (s *Server) rejectProposal(c echo.Context) error {
	owner := mware.WalletAddress(c)
	var req struct {
		ProposalID string `json:"proposal_id"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ProposalID) == "" {
		return badRequest(c, "Proposal ID is required")
	}

	if err := s.coordinator.Reject(c.Request().Context(), strings.TrimSpace(req.ProposalID), owner); err != nil {
		return fail(c, err)
	}

	metrics.Proposals.WithLabelValues("rejected").Inc()
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Proposal rejected",
	})
}
