// Package busclient connects a skill to the assistant message bus over a
// websocket, implementing host.Dialog and host.IntentService on top of the
// bus's JSON frame protocol.
//
// Every frame is a JSON object with a type, a data payload, and a context
// carrying the message id and the skill id. The client announces the skill
// manifest on connect, sends intent registrations and dialog requests, and
// dispatches routed intent frames (type "<skill_id>:<intent_name>") to the
// registered handlers. It does not reconnect; when the bus goes away the
// skill process is expected to be restarted by its supervisor.
package busclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/meepi-labs/neartotalrecall/host"
	"github.com/meepi-labs/neartotalrecall/logging"
)

// Frame types the client sends.
const (
	TypeSkillManifest  = "skill.manifest"
	TypeRegisterIntent = "register_intent"
	TypeSpeakDialog    = "speak_dialog"
)

// Intent trigger kinds carried in register_intent frames.
const (
	triggerFile    = "file"
	triggerKeyword = "keyword"
)

// Frame is the bus wire envelope.
type Frame struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
	Context FrameContext   `json:"context"`
}

// FrameContext identifies a frame and its sender.
type FrameContext struct {
	MessageID string `json:"message_id,omitempty"`
	SkillID   string `json:"skill_id,omitempty"`
}

// Config configures a bus connection.
type Config struct {
	// URL is the websocket endpoint of the bus, e.g. "ws://127.0.0.1:8181/core".
	URL string

	// SkillID identifies the skill in frame contexts and routed intent types.
	SkillID string

	// Requirements is announced in the skill manifest.
	Requirements host.RuntimeRequirements

	// Logger is optional.
	Logger logging.Logger
}

// Client is a connected bus client. It is safe for concurrent use.
type Client struct {
	conn    *websocket.Conn
	skillID string
	log     logging.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[string]host.Handler

	ctx    context.Context
	cancel context.CancelFunc

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the bus, announces the skill manifest, and starts the
// dispatch loop.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("busclient: URL is required")
	}
	if cfg.SkillID == "" {
		return nil, errors.New("busclient: SkillID is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NoOp{}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus %s: %w", cfg.URL, err)
	}

	c := &Client{
		conn:     conn,
		skillID:  cfg.SkillID,
		log:      log,
		handlers: make(map[string]host.Handler),
		done:     make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	err = c.send(TypeSkillManifest, map[string]any{
		"skill_id":             cfg.SkillID,
		"runtime_requirements": cfg.Requirements,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// SpeakDialog implements host.Dialog by sending a speak_dialog frame.
func (c *Client) SpeakDialog(name string, data map[string]string) error {
	payload := map[string]any{"dialog": name}
	if len(data) > 0 {
		payload["data"] = data
	}
	return c.send(TypeSpeakDialog, payload)
}

// RegisterIntent implements host.IntentService for utterance-template
// intents.
func (c *Client) RegisterIntent(name string, h host.Handler) error {
	return c.register(name, triggerFile, "", h)
}

// RegisterKeywordIntent implements host.IntentService for keyword-triggered
// intents.
func (c *Client) RegisterKeywordIntent(name, keyword string, h host.Handler) error {
	if keyword == "" {
		return errors.New("busclient: keyword is required")
	}
	return c.register(name, triggerKeyword, keyword, h)
}

func (c *Client) register(name, trigger, keyword string, h host.Handler) error {
	if name == "" {
		return errors.New("busclient: intent name is required")
	}
	if h == nil {
		return errors.New("busclient: handler is required")
	}

	// Install the handler before telling the bus, so a frame routed
	// immediately after registration always finds it.
	c.mu.Lock()
	c.handlers[name] = h
	c.mu.Unlock()

	data := map[string]any{"name": name, "trigger": trigger}
	if keyword != "" {
		data["keyword"] = keyword
	}
	return c.send(TypeRegisterIntent, data)
}

// Done is closed when the dispatch loop exits. The connection is not
// re-established.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears down the connection and cancels in-flight handler contexts.
// Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Client) send(typ string, data map[string]any) error {
	frame := Frame{
		Type: typ,
		Data: data,
		Context: FrameContext{
			MessageID: uuid.NewString(),
			SkillID:   c.skillID,
		},
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write %s frame: %w", typ, err)
	}
	return nil
}

// readLoop dispatches routed intent frames until the connection closes.
// Handlers run synchronously; the bus routes one utterance at a time.
func (c *Client) readLoop() {
	defer close(c.done)
	prefix := c.skillID + ":"
	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Error("bus connection lost", "error", err)
			}
			return
		}
		if !strings.HasPrefix(frame.Type, prefix) {
			continue
		}
		name := strings.TrimPrefix(frame.Type, prefix)

		c.mu.Lock()
		h := c.handlers[name]
		c.mu.Unlock()
		if h == nil {
			c.log.Warn("no handler for routed intent", "intent", name)
			continue
		}

		c.log.Debug("dispatching intent", "intent", name)
		h(c.ctx, host.Message{Type: name, Data: stringData(frame.Data)})
	}
}

// stringData flattens a frame payload into the string slot values handlers
// consume. Slot values are strings on the wire; anything else is stringified.
func stringData(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
