package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/offcache"
	"github.com/unkn0wn-root/offcache/codec"
	"github.com/unkn0wn-root/offcache/config"
	"github.com/unkn0wn-root/offcache/connectivity"
	"github.com/unkn0wn-root/offcache/dispatch"
	asynchook "github.com/unkn0wn-root/offcache/hooks/async"
	"github.com/unkn0wn-root/offcache/log"
	"github.com/unkn0wn-root/offcache/request"
	"github.com/unkn0wn-root/offcache/sloghooks"
	"github.com/unkn0wn-root/offcache/store"
	"github.com/unkn0wn-root/offcache/transport"
)

type getFlags struct {
	policy  string
	method  string
	headers []string
	data    string
	noCache bool
	timeout time.Duration
	offline bool
	online  bool
	raw     bool
	trace   bool
	maxBody int
}

// delivery is one printed line.
type delivery struct {
	Origin string          `json:"origin"`
	Value  json.RawMessage `json:"value,omitempty"`
	Kind   string          `json:"kind,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func newGetCmd(a *app) *cobra.Command {
	var fl getFlags
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Perform a request and print every delivered result as a JSON line",
		Long: `Perform a request and print every delivered result as a JSON line.

The default store driver is "memory", which lives only as long as this
process: nothing cached by one run is visible to the next. To serve cached
responses offline across runs, configure a persistent store, for example
OFFCACHE_STORE_DRIVER=badger OFFCACHE_STORE_PATH=~/.cache/offfetch.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGet(cmd, args[0], fl)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&fl.policy, "policy", "p", "", "local, remote, local-or-remote or local-and-remote (default from config)")
	f.StringVarP(&fl.method, "method", "X", "GET", "HTTP method")
	f.StringArrayVarP(&fl.headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	f.StringVarP(&fl.data, "data", "d", "", "request body")
	f.BoolVar(&fl.noCache, "no-cache", false, "do not read or write the cache for this request")
	f.DurationVar(&fl.timeout, "timeout", 0, "request timeout (default from config)")
	f.BoolVar(&fl.offline, "offline", false, "treat the network as unreachable without probing")
	f.BoolVar(&fl.online, "online", false, "treat the network as reachable without probing")
	f.BoolVar(&fl.raw, "raw", false, "print the body as a string instead of decoding JSON")
	f.BoolVar(&fl.trace, "trace", false, "log cache and delivery events to stderr")
	f.IntVar(&fl.maxBody, "max-body", 0, "reject bodies larger than this many bytes (0 = unlimited)")
	cmd.MarkFlagsMutuallyExclusive("offline", "online")
	return cmd
}

func (a *app) runGet(cmd *cobra.Command, rawURL string, fl getFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg

	policy, err := offcache.ParsePolicy(coalesceStr(fl.policy, cfg.Policy))
	if err != nil {
		return err
	}
	d, err := buildDescriptor(rawURL, fl, cfg)
	if err != nil {
		return err
	}

	var hooks offcache.Hooks
	if fl.trace {
		h := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		ah := asynchook.New(sloghooks.New(h, sloghooks.Options{}), 1, 256)
		defer ah.Close()
		hooks = ah
	}

	if cfg.Store.Driver == "memory" && (fl.offline || policy == offcache.Local) {
		a.log.Warn("memory store starts empty on every run; configure store.driver=badger to keep responses", nil)
	}

	st, err := config.BuildStore(ctx, cfg, a.log, hooks)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	connected := fl.online
	if !fl.offline && !fl.online {
		connected = newProbe(cfg).Reachable(ctx)
	}
	mon := connectivity.New(connectivity.Options{Initial: connected, Logger: a.log})

	env := getEnv{
		fetcher: transport.NewHTTP(transport.HTTPOptions{UserAgent: cfg.HTTP.UserAgent, Logger: a.log}),
		store:   st,
		monitor: mon,
		hooks:   hooks,
		cfg:     cfg,
		a:       a,
	}
	var n int
	if fl.raw {
		n, err = performAndPrint(cmd, env, d, policy, codec.Limit[string]{Inner: codec.String{}, MaxDecode: fl.maxBody},
			func(v string) ([]byte, error) { return json.Marshal(v) })
	} else {
		n, err = performAndPrint(cmd, env, d, policy, codec.Limit[json.RawMessage]{Inner: codec.NewJSONEnvelope[json.RawMessage](), MaxDecode: fl.maxBody},
			func(v json.RawMessage) ([]byte, error) { return v, nil })
	}
	if err != nil {
		return err
	}
	a.log.Debug("get finished", log.Fields{"deliveries": n, "policy": policy.String(), "connected": connected})
	return nil
}

type getEnv struct {
	fetcher transport.Fetcher
	store   *store.Store
	monitor *connectivity.Monitor
	hooks   offcache.Hooks
	cfg     *config.Config
	a       *app
}

// performAndPrint runs one call and writes each delivery as a JSON line.
func performAndPrint[T any](cmd *cobra.Command, env getEnv, d request.Descriptor, p offcache.Policy, dec codec.Codec[T], render func(T) ([]byte, error)) (int, error) {
	ctx := cmd.Context()
	client, err := offcache.New[T](offcache.Options[T]{
		Fetcher:    env.fetcher,
		Decoder:    dec,
		Store:      env.store,
		Monitor:    env.monitor,
		Dispatcher: dispatch.Inline{},
		Restricted: env.cfg.Restricted,
		Logger:     env.a.log,
		Hooks:      env.hooks,
	})
	if err != nil {
		return 0, err
	}
	defer client.Close(ctx)

	enc := json.NewEncoder(cmd.OutOrStdout())
	n := 0
	for r := range client.Do(ctx, d, p) {
		n++
		line := delivery{Origin: r.Origin.String()}
		if r.OK() {
			if line.Value, err = render(r.Value); err != nil {
				return n, err
			}
		} else {
			line.Kind, line.Error = r.Kind().String(), r.Err.Error()
		}
		if err := enc.Encode(line); err != nil {
			return n, err
		}
	}
	return n, nil
}

func buildDescriptor(rawURL string, fl getFlags, cfg *config.Config) (request.Descriptor, error) {
	timeout := fl.timeout
	if timeout <= 0 {
		timeout = cfg.HTTP.Timeout
	}
	opts := []request.Option{
		request.WithMethod(request.Method(fl.method)),
		request.WithCache(!fl.noCache),
		request.WithTimeout(timeout),
	}
	for _, h := range fl.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return request.Descriptor{}, fmt.Errorf("bad header %q, want \"Name: value\"", h)
		}
		opts = append(opts, request.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	if fl.data != "" {
		opts = append(opts, request.WithBody([]byte(fl.data)))
	}
	return request.New(rawURL, opts...)
}

func coalesceStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
