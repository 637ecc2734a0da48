package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/tickr/pkg/session"
	"tableflip.dev/tickr/pkg/tracker"
)

const (
	timerKey   = "timer"
	sessionKey = "session"
	authKey    = "auth"
	logPrefix  = "log"
	tempDir    = ".tmp"
	layoutISO  = "2006-01-02"
)

// Config supplies the store location.
type Config interface {
	BasePath() string
}

// Persistence is the local state tickr keeps between invocations.
type Persistence interface {
	LoadTimer() (tracker.State, error)
	SaveTimer(s tracker.State) error
	LoadSession() (*session.Session, error)
	SaveSession(s *session.Session) error
	ClearSession() error
	Token() (string, error)
	SetToken(token string) error
	AppendLog(s *session.Session) error
	Log(ctx context.Context, since, until time.Time) []*session.Session
	Watch(ctx context.Context) (<-chan Event, error)
	BasePath() string
}

// Load creates a Persistence backed by diskv under cfg.BasePath().
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		return nil, errors.New("store: config required")
	}
	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &persistence{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		// Other tickr processes write the same records; an in-process cache
		// would serve stale timer state.
		CacheSizeMax: 0,
		FilePerm:     0o600,
		TempDir:      filepath.Join(basePath, tempDir),
	}), basePath: basePath}, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
}

func (p *persistence) BasePath() string {
	return p.basePath
}

// read returns nil data and no error for a missing key.
func (p *persistence) read(key string) ([]byte, error) {
	val, err := p.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (p *persistence) LoadTimer() (tracker.State, error) {
	val, err := p.read(timerKey)
	if err != nil {
		return tracker.State{}, fmt.Errorf("store: read timer: %w", err)
	}
	return tracker.DecodeState(val), nil
}

func (p *persistence) SaveTimer(s tracker.State) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	return p.d.WriteStream(timerKey, bytes.NewReader(data), true)
}

func (p *persistence) LoadSession() (*session.Session, error) {
	val, err := p.read(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("store: read session: %w", err)
	}
	if len(val) == 0 {
		return nil, nil
	}
	s := &session.Session{}
	if err := json.Unmarshal(val, s); err != nil {
		fmt.Fprintf(os.Stderr, "store: discarding malformed session: %v\n", err)
		return nil, nil
	}
	if s.Schema == "" {
		s.Schema = session.CurrentSchema
	}
	return s, nil
}

func (p *persistence) SaveSession(s *session.Session) error {
	if s == nil {
		return p.ClearSession()
	}
	if s.Schema == "" {
		s.Schema = session.CurrentSchema
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.d.Write(sessionKey, data)
}

func (p *persistence) ClearSession() error {
	if !p.d.Has(sessionKey) {
		return nil
	}
	return p.d.Erase(sessionKey)
}

type authRecord struct {
	AccessToken string `json:"access_token"`
}

func (p *persistence) Token() (string, error) {
	val, err := p.read(authKey)
	if err != nil {
		return "", fmt.Errorf("store: read auth: %w", err)
	}
	if len(val) == 0 {
		return "", nil
	}
	rec := authRecord{}
	if err := json.Unmarshal(val, &rec); err != nil {
		return "", nil
	}
	return rec.AccessToken, nil
}

func (p *persistence) SetToken(token string) error {
	if token == "" {
		if !p.d.Has(authKey) {
			return nil
		}
		return p.d.Erase(authKey)
	}
	data, err := json.Marshal(authRecord{AccessToken: token})
	if err != nil {
		return err
	}
	return p.d.Write(authKey, data)
}

func (p *persistence) AppendLog(s *session.Session) error {
	if s == nil {
		return errors.New("store: nil session")
	}
	if s.ID == "" {
		s.ID = session.NewID()
	}
	if s.Schema == "" {
		s.Schema = session.CurrentSchema
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.d.Write(toLogKey(s), data)
}

// Log lists completed sessions that started within [since, until]. Zero
// bounds are open.
func (p *persistence) Log(ctx context.Context, since, until time.Time) []*session.Session {
	all := make([]*session.Session, 0)
	for key := range p.d.KeysPrefix(logPrefix+"-", ctx.Done()) {
		val, err := p.read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		s := &session.Session{}
		if err := json.Unmarshal(val, s); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		started := s.StartedAt.Time
		if !since.IsZero() && started.Before(since) {
			continue
		}
		if !until.IsZero() && started.After(until) {
			continue
		}
		all = append(all, s)
	}
	sortSessions(all)
	return all
}

func sortSessions(sessions []*session.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		lt := sessions[i].StartedAt.Time
		rt := sessions[j].StartedAt.Time
		if lt.Equal(rt) {
			return sessions[i].ID < sessions[j].ID
		}
		return lt.Before(rt)
	})
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toLogKey makes `log-date-id`
func toLogKey(s *session.Session) string {
	then := s.StartedAt.Local().Format(layoutISO)
	return fmt.Sprintf("%s-%s-%s", logPrefix, then, s.ID)
}

// TimerStore adapts a Persistence to the tracker's Store.
type TimerStore struct {
	P Persistence
}

func (t TimerStore) Load() (tracker.State, error) {
	return t.P.LoadTimer()
}

func (t TimerStore) Save(s tracker.State) error {
	return t.P.SaveTimer(s)
}
