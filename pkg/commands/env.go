package commands

import (
	"io"
	"log"
	"net/http"
	"os"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/config"
	"tableflip.dev/tickr/pkg/store"
	"tableflip.dev/tickr/pkg/tracker"
)

// env is everything a command needs to talk to the timer.
type env struct {
	cfg     *config.Config
	p       store.Persistence
	client  *api.Client
	tracker *tracker.Tracker
	svc     *app.Service
}

func logger() *log.Logger {
	if debug {
		return log.New(os.Stderr, "tickr: ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// loadEnv reads config, opens the store and builds the service. Extra
// tracker options are applied last. Callers must Close the env.
func loadEnv(opts ...tracker.Option) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	p, err := store.Load(cfg)
	if err != nil {
		return nil, err
	}
	l := logger()

	token := cfg.Token
	if stored, err := p.Token(); err != nil {
		l.Printf("read token: %v", err)
	} else if stored != "" {
		token = stored
	}

	clientOpts := []api.Option{api.WithToken(token), api.WithCacheTTL(cfg.CacheTTL)}
	if cfg.RequestTimeout > 0 {
		clientOpts = append(clientOpts, api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	}
	client := api.New(cfg.APIURL, clientOpts...)

	trOpts := append([]tracker.Option{
		tracker.WithStore(store.TimerStore{P: p}),
		tracker.WithHoldDelay(cfg.HoldDelay),
		tracker.WithTickInterval(cfg.TickInterval),
		tracker.WithLogger(l),
	}, opts...)
	tr := tracker.New(trOpts...)

	return &env{
		cfg:     cfg,
		p:       p,
		client:  client,
		tracker: tr,
		svc: &app.Service{
			Persistence: p,
			Backend:     client,
			Tracker:     tr,
			Logger:      l,
		},
	}, nil
}

func (e *env) Close() {
	e.tracker.Close()
}
