package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpurse/wallet-sim/internal/alerts"
	"github.com/coinpurse/wallet-sim/internal/engine"
	"github.com/coinpurse/wallet-sim/internal/export"
	"github.com/coinpurse/wallet-sim/internal/keys"
	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/messaging"
	"github.com/coinpurse/wallet-sim/internal/multisig"
	"github.com/coinpurse/wallet-sim/internal/rates"
	"github.com/coinpurse/wallet-sim/internal/twofactor"
)

const (
	testJWTSecret = "handler-test-secret"
	testAdminKey  = "admin-test-key"
)

type testEnv struct {
	e     *echo.Echo
	store *ledger.MemoryStore
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := ledger.NewMemoryStore()
	eng := engine.New(store)
	gen := keys.NewGenerator(store, ledger.Coins(1000))
	coord := multisig.NewCoordinator(store, multisig.NewMemoryStore(), eng, gen)

	srv := NewServer(Options{
		Store:       store,
		Engine:      eng,
		Coordinator: coord,
		Generator:   gen,
		Verifier:    twofactor.NewService(store),
		Rates:       rates.NewService(),
		Exporter:    export.New(),
		Hub:         messaging.NewHub(),
		Notifier:    alerts.NewNotifier(""),
		JWTSecret:   testJWTSecret,
		AdminKey:    testAdminKey,
	})

	e := echo.New()
	srv.Register(e)
	return &testEnv{e: e, store: store}
}

func (env *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decode(t, rec)
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", rec.Body.String())
	return d
}

func (env *testEnv) newWallet(t *testing.T) (address, privateKey string) {
	t.Helper()
	rec := env.do(http.MethodPost, "/create_wallet", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	d := data(t, rec)
	return d["address"].(string), d["private_key"].(string)
}

func (env *testEnv) token(t *testing.T, address, privateKey string) string {
	t.Helper()
	rec := env.do(http.MethodPost, "/access_wallet", map[string]string{
		"address":     address,
		"private_key": privateKey,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decode(t, rec)["token"].(string)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Key": testAdminKey}
}

func TestHealthEndpoints(t *testing.T) {
	env := newEnv(t)

	rec := env.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestCreateAndAccessWallet(t *testing.T) {
	env := newEnv(t)

	rec := env.do(http.MethodPost, "/create_wallet", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	d := data(t, rec)
	address := d["address"].(string)
	privateKey := d["private_key"].(string)
	assert.True(t, strings.HasPrefix(address, "0x"))
	assert.Len(t, privateKey, 64)
	assert.Equal(t, "1000", d["balance"])
	assert.Len(t, strings.Fields(d["mnemonic"].(string)), 12)

	t.Run("valid credentials get a token", func(t *testing.T) {
		token := env.token(t, address, privateKey)
		rec := env.do(http.MethodGet, "/wallet/me", nil, bearer(token))
		require.Equal(t, http.StatusOK, rec.Code)
		me := data(t, rec)
		assert.Equal(t, address, me["address"])
		assert.Equal(t, false, me["two_factor_enabled"])
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		_, otherKey := env.newWallet(t)
		rec := env.do(http.MethodPost, "/access_wallet", map[string]string{
			"address":     address,
			"private_key": otherKey,
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown wallet is not found", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/access_wallet", map[string]string{
			"address":     "0xdoesnotexist",
			"private_key": privateKey,
		}, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/access_wallet", map[string]string{"address": address}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("me requires a token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/wallet/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSendTransaction(t *testing.T) {
	env := newEnv(t)
	sender, senderKey := env.newWallet(t)
	receiver, _ := env.newWallet(t)

	rec := env.do(http.MethodPost, "/send_transaction", map[string]interface{}{
		"sender_address":   sender,
		"receiver_address": receiver,
		"amount":           250,
		"private_key":      senderKey,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	tx := data(t, rec)
	hash := tx["transaction_hash"].(string)
	assert.Len(t, hash, 64)
	assert.Equal(t, "completed", tx["status"])

	rec = env.do(http.MethodGet, "/get_balance/"+sender, nil, nil)
	assert.Equal(t, "750", data(t, rec)["balance"])
	rec = env.do(http.MethodGet, "/get_balance/"+receiver, nil, nil)
	assert.Equal(t, "1250", data(t, rec)["balance"])

	t.Run("history lists the transfer for both sides", func(t *testing.T) {
		for _, address := range []string{sender, receiver} {
			rec := env.do(http.MethodGet, "/get_transactions/"+address, nil, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			list := decode(t, rec)["data"].([]interface{})
			require.Len(t, list, 1)
			row := list[0].(map[string]interface{})
			assert.Equal(t, hash, row["transaction_hash"])
		}
	})

	t.Run("transaction lookup by hash", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/get_transaction/"+hash, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, hash, data(t, rec)["transaction_hash"])

		rec = env.do(http.MethodGet, "/get_transaction/"+strings.Repeat("0", 64), nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/send_transaction", map[string]interface{}{
			"sender_address":   sender,
			"receiver_address": receiver,
			"amount":           5000,
			"private_key":      senderKey,
		}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("wrong private key", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/send_transaction", map[string]interface{}{
			"sender_address":   sender,
			"receiver_address": receiver,
			"amount":           10,
			"private_key":      strings.Repeat("ab", 32),
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("zero amount", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/send_transaction", map[string]interface{}{
			"sender_address":   sender,
			"receiver_address": receiver,
			"amount":           0,
			"private_key":      senderKey,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/send_transaction", map[string]interface{}{
			"sender_address": sender,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMultisigLifecycle(t *testing.T) {
	env := newEnv(t)
	ownerA, keyA := env.newWallet(t)
	ownerB, keyB := env.newWallet(t)
	receiver, _ := env.newWallet(t)
	tokenA := env.token(t, ownerA, keyA)
	tokenB := env.token(t, ownerB, keyB)

	rec := env.do(http.MethodPost, "/create_multisig", map[string]interface{}{
		"owners": []string{ownerA, ownerB},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	vaultData := data(t, rec)
	vault := vaultData["address"].(string)
	assert.Equal(t, float64(2), vaultData["required_signatures"])

	t.Run("owners endpoint", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/multisig/"+vault+"/owners", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		d := data(t, rec)
		owners := d["owners"].([]interface{})
		assert.ElementsMatch(t, []interface{}{ownerA, ownerB}, owners)
	})

	t.Run("owners endpoint rejects plain wallets", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/multisig/"+ownerA+"/owners", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec = env.do(http.MethodPost, "/multisig/propose", map[string]interface{}{
		"sender_address":   vault,
		"receiver_address": receiver,
		"amount":           100,
	}, bearer(tokenA))
	require.Equal(t, http.StatusCreated, rec.Code)
	proposal := data(t, rec)
	proposalID := proposal["id"].(string)
	assert.True(t, strings.HasPrefix(proposalID, "prop-"))
	assert.Equal(t, "proposed", proposal["status"])

	t.Run("proposing requires an owner token", func(t *testing.T) {
		outsider, outsiderKey := env.newWallet(t)
		outsiderToken := env.token(t, outsider, outsiderKey)
		rec := env.do(http.MethodPost, "/multisig/propose", map[string]interface{}{
			"sender_address":   vault,
			"receiver_address": receiver,
			"amount":           100,
		}, bearer(outsiderToken))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("pending shows the live proposal", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/multisig/"+vault+"/pending", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode(t, rec)["data"].([]interface{})
		require.Len(t, list, 1)
	})

	rec = env.do(http.MethodPost, "/multisig/approve", map[string]string{"proposal_id": proposalID}, bearer(tokenA))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approving", data(t, rec)["status"])

	t.Run("duplicate approval is rejected", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/multisig/approve", map[string]string{"proposal_id": proposalID}, bearer(tokenA))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec = env.do(http.MethodPost, "/multisig/approve", map[string]string{"proposal_id": proposalID}, bearer(tokenB))
	require.Equal(t, http.StatusOK, rec.Code)
	finalized := data(t, rec)
	assert.Equal(t, "finalized", finalized["status"])
	finalHash := finalized["final_hash"].(string)
	assert.Len(t, finalHash, 64)

	rec = env.do(http.MethodGet, "/get_balance/"+vault, nil, nil)
	assert.Equal(t, "900", data(t, rec)["balance"])
	rec = env.do(http.MethodGet, "/get_balance/"+receiver, nil, nil)
	assert.Equal(t, "1100", data(t, rec)["balance"])

	t.Run("closed proposals refuse further actions", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/multisig/approve", map[string]string{"proposal_id": proposalID}, bearer(tokenB))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.do(http.MethodPost, "/multisig/reject", map[string]string{"proposal_id": proposalID}, bearer(tokenA))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown proposal is not found", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/multisig/approve", map[string]string{"proposal_id": "prop-missing"}, bearer(tokenA))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("reject closes a fresh proposal", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/multisig/propose", map[string]interface{}{
			"sender_address":   vault,
			"receiver_address": receiver,
			"amount":           50,
		}, bearer(tokenB))
		require.Equal(t, http.StatusCreated, rec.Code)
		id := data(t, rec)["id"].(string)

		rec = env.do(http.MethodPost, "/multisig/reject", map[string]string{"proposal_id": id}, bearer(tokenA))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(http.MethodPost, "/multisig/approve", map[string]string{"proposal_id": id}, bearer(tokenB))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too few owners", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/create_multisig", map[string]interface{}{
			"owners": []string{ownerA},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("direct spends from the vault are blocked", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/send_transaction", map[string]interface{}{
			"sender_address":   vault,
			"receiver_address": receiver,
			"amount":           10,
			"private_key":      vaultData["private_key"].(string),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTwoFactorRoutes(t *testing.T) {
	env := newEnv(t)
	address, privateKey := env.newWallet(t)
	token := env.token(t, address, privateKey)

	rec := env.do(http.MethodPost, "/enable_2fa", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, rec)
	secret := d["secret"].(string)
	assert.Len(t, secret, 32)
	assert.Contains(t, d["qr_code"].(string), "data:image/png;base64,")

	t.Run("re-enrollment is rejected", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/enable_2fa", nil, bearer(token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	t.Run("valid code verifies", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/verify_2fa", map[string]string{
			"address": address,
			"token":   code,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["valid"])
	})

	t.Run("garbage code reports invalid", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/verify_2fa", map[string]string{
			"address": address,
			"token":   "not-a-code",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, decode(t, rec)["valid"])
	})

	t.Run("verify without enrollment is rejected", func(t *testing.T) {
		other, _ := env.newWallet(t)
		rec := env.do(http.MethodPost, "/verify_2fa", map[string]string{
			"address": other,
			"token":   code,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("disable needs a valid code", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/disable_2fa", map[string]string{"token": "000000"}, bearer(token))
		if rec.Code == http.StatusOK {
			t.Skip("generated code collided with 000000")
		}
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		fresh, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)
		rec = env.do(http.MethodPost, "/disable_2fa", map[string]string{"token": fresh}, bearer(token))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBackupRoutes(t *testing.T) {
	env := newEnv(t)
	address, privateKey := env.newWallet(t)
	token := env.token(t, address, privateKey)

	rec := env.do(http.MethodPost, "/backup_wallet", map[string]string{
		"password":    "correct horse",
		"private_key": privateKey,
	}, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, rec)
	blob := d["encrypted_backup"].(string)
	assert.Len(t, strings.Fields(d["mnemonic"].(string)), 12)

	t.Run("backup requires the matching key", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/backup_wallet", map[string]string{
			"password":    "correct horse",
			"private_key": strings.Repeat("cd", 32),
		}, bearer(token))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("restore from blob returns the key", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/restore_wallet", map[string]string{
			"encrypted_backup": blob,
			"password":         "correct horse",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		restored := data(t, rec)
		assert.Equal(t, address, restored["address"])
		assert.Equal(t, privateKey, restored["private_key"])
	})

	t.Run("wrong password fails decryption", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/restore_wallet", map[string]string{
			"encrypted_backup": blob,
			"password":         "wrong",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("mnemonic-only restore validates the phrase", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/restore_wallet", map[string]string{
			"mnemonic": d["mnemonic"].(string),
			"password": "anything",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := data(t, rec)
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, float64(12), body["word_count"])
	})

	t.Run("bad mnemonic is rejected", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/restore_wallet", map[string]string{
			"mnemonic": "zebra zebra zebra zebra zebra zebra zebra zebra zebra zebra zebra zebra",
			"password": "anything",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRatesRoutes(t *testing.T) {
	env := newEnv(t)

	rec := env.do(http.MethodGet, "/exchange_rates", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "COIN", body["base_currency"])
	quoted := body["rates"].(map[string]interface{})
	assert.InDelta(t, 1.0, quoted["USD"], 1e-9)
	assert.InDelta(t, 0.000025, quoted["BTC"], 1e-12)

	t.Run("unsupported base", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/exchange_rates?base=DOGE", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("convert", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/convert", map[string]interface{}{
			"amount":        2,
			"from_currency": "COIN",
			"to_currency":   "BTC",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.InDelta(t, 0.00005, body["converted_amount"], 1e-12)
		assert.InDelta(t, 0.000025, body["rate"], 1e-12)
	})

	t.Run("convert rejects unknown currencies", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/convert", map[string]interface{}{
			"amount":        2,
			"from_currency": "DOGE",
			"to_currency":   "USD",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("manual refresh", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/exchange_rates/refresh", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestQRRoutes(t *testing.T) {
	env := newEnv(t)
	address, _ := env.newWallet(t)

	rec := env.do(http.MethodGet, "/generate_qr/"+address, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["qr_code"].(string), "data:image/png;base64,")

	t.Run("payment request variant", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/generate_qr/"+address+"?amount=2.5&label=Coffee", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Contains(t, body["payment_uri"].(string), "crypto:"+address)
		assert.Contains(t, body["payment_uri"].(string), "amount=2.5")
	})

	t.Run("unknown wallet", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/generate_qr/0xmissing", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad amount", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/generate_qr/"+address+"?amount=lots", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportRoutes(t *testing.T) {
	env := newEnv(t)
	sender, senderKey := env.newWallet(t)
	receiver, _ := env.newWallet(t)
	rec := env.do(http.MethodPost, "/send_transaction", map[string]interface{}{
		"sender_address":   sender,
		"receiver_address": receiver,
		"amount":           25,
		"private_key":      senderKey,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("csv attachment", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/export/"+sender+"/csv", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=transactions_")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "Date,Type,From,To,Amount,Transaction Hash,Status"))
		assert.Contains(t, rec.Body.String(), "Sent")
	})

	t.Run("pdf attachment", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/export/"+receiver+"/pdf", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/pdf")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
	})

	t.Run("invalid format", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/export/"+sender+"/xml", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/export/0xmissing/csv", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdminRoutes(t *testing.T) {
	env := newEnv(t)
	address, _ := env.newWallet(t)

	t.Run("admin key required", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/admin/stats", nil, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(http.MethodGet, "/admin/stats", nil, map[string]string{"X-Admin-Key": "wrong"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/admin/stats", nil, adminHeaders())
		require.Equal(t, http.StatusOK, rec.Code)
		d := data(t, rec)
		assert.Equal(t, float64(1), d["wallets"])
	})

	t.Run("wallet list", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/admin/wallets?limit=10", nil, adminHeaders())
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(1), body["count"])
		row := body["data"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, address, row["address"])
		_, leaked := row["private_key_hash"]
		assert.False(t, leaked)
	})

	t.Run("credit adjustment", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/admin/adjust", map[string]interface{}{
			"address": address,
			"delta":   50,
			"note":    "promo credit",
		}, adminHeaders())
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(http.MethodGet, "/get_balance/"+address, nil, nil)
		assert.Equal(t, "1050", data(t, rec)["balance"])
	})

	t.Run("debit cannot overdraw", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/admin/adjust", map[string]interface{}{
			"address": address,
			"delta":   -99999,
		}, adminHeaders())
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("zero delta", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/admin/adjust", map[string]interface{}{
			"address": address,
			"delta":   0,
		}, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
