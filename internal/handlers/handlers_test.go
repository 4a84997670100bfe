package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testUser = int64(42)

type brokenStore struct {
	*ledger.MemoryStore
}

func (brokenStore) Adjust(context.Context, ledger.Adjustment) (*models.Transaction, error) {
	return nil, errors.New("database is down")
}

type testServer struct {
	router *gin.Engine
	store  ledger.Store
	hub    *WebSocketHub
}

func newTestServer(t *testing.T, store ledger.Store, draws ...string) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewWebSocketHub()
	go hub.Run(ctx)

	cards := make([]models.Card, len(draws))
	for i, r := range draws {
		cards[i] = models.Card{Rank: r, Suit: "♣"}
	}

	balances := services.NewBalanceSynchronizer(store)
	locks := services.NewUserLocks()
	blackjack := services.NewBlackjackEngine(balances, locks,
		services.WithBroadcaster(hub),
		services.WithDeckFactory(func() *services.Deck { return services.NewStackedDeck(services.SystemRNG, cards...) }),
	)
	roulette := services.NewRouletteService(balances, locks, blackjack, services.WithBroadcaster(hub))
	slots := services.NewSlotService(balances, locks, blackjack, services.WithBroadcaster(hub))
	wallet := services.NewWalletService(balances, locks, blackjack, services.WithBroadcaster(hub))

	bj := NewBlackjackHandler(blackjack)
	games := NewGameHandler(roulette, slots, wallet)
	wh := NewWalletHandler(wallet)
	users := NewUserHandler(wallet, blackjack)
	ws := NewWebSocketHandler(hub, wallet)

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set("user_id", testUser)
		c.Set("session_id", "test-session")
	})
	api.GET("/me", users.GetCurrentUser)
	api.GET("/ws", ws.HandleWebSocket)
	api.GET("/blackjack/state", bj.GetState)
	api.POST("/blackjack/bet", bj.PlaceBet)
	api.POST("/blackjack/deal", bj.Action(models.ActionDeal))
	api.POST("/blackjack/stand", bj.Action(models.ActionStand))
	api.POST("/blackjack/hit", bj.Action(models.ActionHit))
	api.POST("/roulette/spin", games.SpinRoulette)
	api.POST("/slots/spin", games.SpinSlots)
	api.GET("/games/history", games.GetGameHistory)
	api.GET("/wallet/balance", wh.GetBalance)
	api.POST("/wallet/deposit", wh.Deposit)
	api.POST("/wallet/withdraw", wh.Withdraw)
	api.GET("/wallet/transactions", wh.GetTransactions)

	return &testServer{router: r, store: store, hub: hub}
}

func (s *testServer) fund(t *testing.T, amount int64) {
	t.Helper()
	ctx := context.Background()
	if err := s.store.Open(ctx, testUser); err != nil {
		t.Fatalf("open: %v", err)
	}
	mem := s.store
	if b, ok := s.store.(brokenStore); ok {
		mem = b.MemoryStore
	}
	_, err := mem.Adjust(ctx, ledger.Adjustment{
		UserID: testUser,
		Delta:  decimal.NewFromInt(amount),
		Kind:   models.TransactionKindDeposit,
		Method: models.MethodCard,
	})
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: invalid JSON %q", method, path, w.Body.String())
	}
	return w.Code, out
}

func TestBlackjackEndpoints(t *testing.T) {
	s := newTestServer(t, ledger.NewMemoryStore(), "10", "10", "9", "7")
	s.fund(t, 100)

	code, body := s.do(t, http.MethodPost, "/api/blackjack/bet", `{"amount": 10}`)
	if code != http.StatusOK {
		t.Fatalf("bet: %d %v", code, body)
	}
	state := body["state"].(map[string]any)
	if state["bet"].(float64) != 10 || state["phase"] != "BETTING" {
		t.Errorf("state after bet = %v", state)
	}

	_, body = s.do(t, http.MethodPost, "/api/blackjack/deal", "")
	state = body["state"].(map[string]any)
	if state["dealer_hidden"] != true {
		t.Errorf("dealer should be hidden: %v", state)
	}

	_, body = s.do(t, http.MethodPost, "/api/blackjack/stand", "")
	state = body["state"].(map[string]any)
	if state["phase"] != "END" || state["bank"] != "110" {
		t.Errorf("state after stand = %v", state)
	}

	code, body = s.do(t, http.MethodPost, "/api/blackjack/hit", "")
	if code != http.StatusOK || body["state"].(map[string]any)["phase"] != "END" {
		t.Errorf("illegal hit should return the unchanged state: %d %v", code, body)
	}
}

func TestBlackjackBetValidation(t *testing.T) {
	s := newTestServer(t, ledger.NewMemoryStore())

	for _, payload := range []string{`{"amount": 0}`, `{"amount": "ten"}`, `not json`} {
		code, _ := s.do(t, http.MethodPost, "/api/blackjack/bet", payload)
		if code != http.StatusBadRequest {
			t.Errorf("payload %s: status %d", payload, code)
		}
	}
}

func TestSpinEndpoints(t *testing.T) {
	s := newTestServer(t, ledger.NewMemoryStore())
	s.fund(t, 100)

	code, body := s.do(t, http.MethodPost, "/api/roulette/spin", `{"bets":[{"amt":10,"odds":35,"numbers":"7","type":"straight"}]}`)
	if code != http.StatusOK {
		t.Fatalf("roulette: %d %v", code, body)
	}
	result := body["result"].(map[string]any)
	if n := result["winning_number"].(float64); n < 0 || n > 36 {
		t.Errorf("winning number %v", n)
	}

	code, body = s.do(t, http.MethodPost, "/api/roulette/spin", `{"bets":[{"amt":100000,"odds":1,"numbers":"1,2"}]}`)
	if code != http.StatusBadRequest || body["error"] != "Insufficient funds" {
		t.Errorf("over-bank roulette: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/slots/spin", `{"bet": 5}`)
	if code != http.StatusOK {
		t.Fatalf("slots: %d %v", code, body)
	}
	grid := body["result"].(map[string]any)["grid"].([]any)
	if len(grid) != 3 {
		t.Errorf("grid = %v", grid)
	}

	code, body = s.do(t, http.MethodPost, "/api/slots/spin", `{"bet": 0}`)
	if code != http.StatusBadRequest {
		t.Errorf("zero slot bet: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/games/history", "")
	if code != http.StatusOK || body["count"].(float64) != 2 {
		t.Errorf("history: %d %v", code, body)
	}
}

func TestWalletEndpoints(t *testing.T) {
	s := newTestServer(t, ledger.NewMemoryStore())

	code, body := s.do(t, http.MethodPost, "/api/wallet/deposit", `{"amount": "50.25", "method": "card"}`)
	if code != http.StatusOK {
		t.Fatalf("deposit: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/wallet/deposit", `{"amount": 20, "method": "bank_transfer"}`)
	if code != http.StatusOK || !strings.HasPrefix(body["reference"].(string), "RC-") {
		t.Errorf("bank transfer: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/wallet/withdraw", `{"amount": 100, "method": "card"}`)
	if code != http.StatusBadRequest {
		t.Errorf("overdraft: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/wallet/withdraw", `{"amount": 10, "method": "card"}`)
	if code != http.StatusOK {
		t.Errorf("withdraw: %d %v", code, body)
	}

	_, body = s.do(t, http.MethodGet, "/api/wallet/balance", "")
	wallet := body["wallet"].(map[string]any)
	if wallet["balance"] != "40.25" {
		t.Errorf("balance = %v", wallet)
	}

	_, body = s.do(t, http.MethodGet, "/api/wallet/transactions?limit=10", "")
	if body["count"].(float64) != 3 {
		t.Errorf("transactions = %v", body)
	}
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t, ledger.NewMemoryStore())

	code, body := s.do(t, http.MethodGet, "/api/me", "")
	if code != http.StatusOK {
		t.Fatalf("me: %d %v", code, body)
	}
	user := body["user"].(map[string]any)
	if user["id"].(float64) != float64(testUser) {
		t.Errorf("user = %v", user)
	}
	if user["blackjack"].(map[string]any)["phase"] != "BETTING" {
		t.Errorf("blackjack = %v", user["blackjack"])
	}
}

func TestPersistenceFailureIs503(t *testing.T) {
	s := newTestServer(t, brokenStore{ledger.NewMemoryStore()}, "10", "10", "9", "7")
	s.fund(t, 100)

	s.do(t, http.MethodPost, "/api/blackjack/bet", `{"amount": 10}`)
	s.do(t, http.MethodPost, "/api/blackjack/deal", "")

	code, body := s.do(t, http.MethodPost, "/api/blackjack/stand", "")
	if code != http.StatusServiceUnavailable {
		t.Errorf("stand with broken ledger: %d %v", code, body)
	}

	code, _ = s.do(t, http.MethodPost, "/api/slots/spin", `{"bet": 5}`)
	if code != http.StatusServiceUnavailable {
		t.Errorf("slots with broken ledger: %d", code)
	}

	_, body = s.do(t, http.MethodGet, "/api/blackjack/state", "")
	if body["state"].(map[string]any)["phase"] != "PLAYER" {
		t.Errorf("hand should still be in play: %v", body)
	}
}

func TestWebSocketPushes(t *testing.T) {
	s := newTestServer(t, ledger.NewMemoryStore())
	s.fund(t, 100)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != MessageBalanceUpdate {
		t.Fatalf("first message = %s", msg.Type)
	}

	if err := conn.WriteJSON(Message{Type: MessagePing}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != MessagePong {
		t.Fatalf("expected PONG, got %v %v", msg.Type, err)
	}

	// The connection is registered once it has answered, so pushes reach it.
	s.hub.BroadcastRound(testUser, models.GameTypeSlots, gin.H{"payout": 50})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read push: %v", err)
	}
	if msg.Type != MessageRoundUpdate || msg.Game != models.GameTypeSlots {
		t.Errorf("push = %+v", msg)
	}

	s.hub.BroadcastRound(testUser+1, models.GameTypeSlots, gin.H{"payout": 1})
	s.hub.BroadcastBalance(testUser, decimal.NewFromInt(7))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read balance push: %v", err)
	}
	if msg.Type != MessageBalanceUpdate {
		t.Errorf("another user's round leaked: %+v", msg)
	}
}
