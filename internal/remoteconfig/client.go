// Package remoteconfig lets a socket.io server push configuration property
// changes into a running render graph. Updates arrive on the client's event
// goroutine and are handed to the render loop, which owns the store.
package remoteconfig

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/renderloop"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// EventSetProperty carries a {"name": ..., "value": ...} payload.
	EventSetProperty = "set_property"
	// EventAck is emitted back after an update was applied or rejected.
	EventAck = "property_ack"
)

// ErrBadPayload is returned for set_property payloads that cannot be decoded.
var ErrBadPayload = errors.New("bad set_property payload")

// Poster queues work on the render loop.
type Poster interface {
	Post(task renderloop.Task) error
}

// Options configures the connection.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Update is a single decoded property change.
type Update struct {
	Name  string
	Value cty.Value
}

// Client is a connected remote configuration source.
type Client struct {
	io    *socket.Socket
	store *config.Store
	loop  Poster
}

// Connect dials the server and starts forwarding updates to store through
// loop. It blocks until the connection is established, fails, or times out.
func Connect(ctx context.Context, opts Options, store *config.Store, loop Poster) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "remoteconfig", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	c := &Client{io: io, store: store, loop: loop}

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("📡 Remote configuration connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("EVENT HANDLER: 'connect_error' event fired", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})
	io.On(types.EventName(EventSetProperty), func(args ...any) {
		c.receive(ctx, args...)
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}
}

// Close disconnects from the server.
func (c *Client) Close() {
	if c == nil || c.io == nil {
		return
	}
	c.io.Disconnect()
}

func (c *Client) receive(ctx context.Context, args ...any) {
	logger := ctxlog.FromContext(ctx)

	upd, err := DecodeUpdate(args...)
	if err != nil {
		logger.Warn("Ignoring remote configuration update.", "error", err)
		c.io.Emit(EventAck, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	err = c.loop.Post(func(ctx context.Context) error {
		applyErr := upd.Apply(ctx, c.store)
		ack := map[string]any{"name": upd.Name, "ok": applyErr == nil}
		if applyErr != nil {
			ack["error"] = applyErr.Error()
		}
		c.io.Emit(EventAck, ack)
		return applyErr
	})
	if err != nil {
		logger.Warn("Dropping remote configuration update.", "property", upd.Name, "error", err)
	}
}

// DecodeUpdate reads a set_property payload: one object with a string
// "name" and a scalar "value".
func DecodeUpdate(args ...any) (Update, error) {
	if len(args) == 0 {
		return Update{}, fmt.Errorf("%w: no data", ErrBadPayload)
	}
	payload, ok := args[0].(map[string]any)
	if !ok {
		return Update{}, fmt.Errorf("%w: expected an object, got %T", ErrBadPayload, args[0])
	}
	name, ok := payload["name"].(string)
	if !ok || name == "" {
		return Update{}, fmt.Errorf("%w: missing property name", ErrBadPayload)
	}
	raw, ok := payload["value"]
	if !ok {
		return Update{}, fmt.Errorf("%w: missing value for %q", ErrBadPayload, name)
	}
	v, err := config.ValueOf(raw)
	if err != nil {
		return Update{}, fmt.Errorf("%w: %q: %w", ErrBadPayload, name, err)
	}
	return Update{Name: name, Value: v}, nil
}

// Apply writes the update into store. Only declared properties can be set.
func (u Update) Apply(ctx context.Context, store *config.Store) error {
	if _, ok := store.Get(u.Name); !ok {
		return fmt.Errorf("unknown property %q", u.Name)
	}
	if err := store.Set(ctx, u.Name, u.Value); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Remote configuration applied.", "property", u.Name, "value", u.Value.GoString())
	return nil
}
