package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harunnryd/teller/pkg/agent"
	"github.com/harunnryd/teller/pkg/bank"
	"github.com/harunnryd/teller/pkg/metrics"
	"github.com/harunnryd/teller/pkg/store"
)

type Config struct {
	ServerAddr     string   `mapstructure:"server_addr"`
	ChatPath       string   `mapstructure:"chat_path"`
	WebsocketPath  string   `mapstructure:"ws_path"`
	TurnTimeout    string   `mapstructure:"turn_timeout"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.ChatPath == "" {
		c.ChatPath = "/chat"
	}
	if c.WebsocketPath == "" {
		c.WebsocketPath = "/ws"
	}
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

// Responder produces one assistant reply for one customer utterance.
// Satisfied by agent.Responder.
type Responder interface {
	Respond(ctx context.Context, utterance string, history []agent.Turn, user store.User) (string, error)
}

// Transport serves the banking assistant over HTTP and websocket. The
// HTTP side is stateless (callers carry their own history); websocket
// sessions keep history per connection.
type Transport struct {
	cfg       Config
	responder Responder
	svc       *bank.Service
	logger    *slog.Logger
	obs       metrics.Observer

	server      *http.Server
	upgrader    websocket.Upgrader
	turnTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session

	draining atomic.Bool
}

func New(cfg Config, responder Responder, svc *bank.Service, logger *slog.Logger, obs metrics.Observer) *Transport {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	t := &Transport{
		cfg:       cfg,
		responder: responder,
		svc:       svc,
		logger:    logger,
		obs:       obs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		turnTimeout: parseTimeout(cfg.TurnTimeout),
		sessions:    make(map[string]*session),
	}
	t.upgrader.CheckOrigin = t.checkOrigin
	return t
}

func parseTimeout(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

func (t *Transport) Name() string { return "chat" }

func (t *Transport) ReadyFields() map[string]any {
	return map[string]any{
		"server_addr": t.cfg.ServerAddr,
		"chat_path":   t.cfg.ChatPath,
		"ws_path":     t.cfg.WebsocketPath,
	}
}

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.server = &http.Server{
		Addr:              t.cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           t.Handler(),
	}
	go func() {
		<-ctx.Done()
		_ = t.server.Close()
	}()
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("chat_transport_server_error", "error", err.Error())
		}
	}()
	return nil
}

// Handler exposes the route table, also used directly by tests.
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/register", t.handleRegister)
	mux.HandleFunc("/login", t.handleLogin)
	mux.HandleFunc("/profile", t.handleProfile)
	mux.HandleFunc("/loans", t.handleLoans)
	mux.HandleFunc("/deposits", t.handleDeposits)
	mux.HandleFunc(t.cfg.ChatPath, t.handleChat)
	mux.HandleFunc(t.cfg.WebsocketPath, t.handleWebsocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (t *Transport) Stop() error {
	t.draining.Store(true)
	if t.server != nil {
		_ = t.server.Close()
	}
	t.mu.Lock()
	for _, sess := range t.sessions {
		_ = sess.close()
	}
	t.sessions = make(map[string]*session)
	t.mu.Unlock()
	return nil
}

func (t *Transport) attach(id string, sess *session) {
	t.mu.Lock()
	t.sessions[id] = sess
	t.mu.Unlock()
}

func (t *Transport) detach(id string) {
	t.mu.Lock()
	sess := t.sessions[id]
	delete(t.sessions, id)
	t.mu.Unlock()
	if sess != nil {
		_ = sess.close()
	}
}

func (t *Transport) checkOrigin(r *http.Request) bool {
	if t.cfg.AllowAnyOrigin {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range t.cfg.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

type session struct {
	conn   *websocket.Conn
	closed atomic.Bool
}

func (s *session) close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.conn.Close()
	}
	return nil
}
