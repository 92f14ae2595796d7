// ABOUTME: Charm KV client wrapper for syncing analysis sessions to the cloud
// ABOUTME: Sessions are stored as JSON snapshots keyed by session ID with SSH key auth
package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/models"
	"github.com/harper/topicmap/internal/util"
)

// SessionPrefix namespaces session snapshots in the KV store
const SessionPrefix = "session:"

// ErrSnapshotNotFound is returned when no snapshot exists for a session ID
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// Config holds charm client configuration
type Config struct {
	Host       string
	DBName     string
	AutoSync   bool
	Retries    int
	RetryDelay time.Duration
}

// DefaultConfig returns default configuration for charm client
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &Config{
		Host:       host,
		DBName:     "topicmap",
		AutoSync:   true,
		Retries:    3,
		RetryDelay: 2 * time.Second,
	}
}

// Snapshot is the synced form of a session and its question history
type Snapshot struct {
	Session  *models.Session `json:"session"`
	Turns    []models.Turn   `json:"turns,omitempty"`
	PushedAt time.Time       `json:"pushed_at"`
}

// store is the subset of *kv.KV the client needs
type store interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	Close() error
}

// Client wraps charm KV for session sync
type Client struct {
	kv     store
	config *Config
	logger *log.Logger
	mu     sync.Mutex
}

// NewClient opens the charm KV database named in cfg
func NewClient(cfg *Config, logger *log.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// kv.OpenWithDefaults reads the host from the environment
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	return newClient(db, cfg, logger), nil
}

func newClient(db store, cfg *Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{kv: db, config: cfg, logger: logger}
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// Host returns the configured charm host
func (c *Client) Host() string {
	return c.config.Host
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// AuthorizedKeys returns the list of linked devices/keys
func (c *Client) AuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}

// Sync exchanges local and remote changes, retrying with backoff
func (c *Client) Sync(ctx context.Context) error {
	attempt := 0
	err := util.Retry(ctx, c.config.Retries, c.config.RetryDelay, func() error {
		attempt++
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.kv == nil {
			return errors.New("charm client is closed")
		}
		if err := c.kv.Sync(); err != nil {
			c.logger.Warn("charm sync failed", "attempt", attempt, "err", err)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync failed after %d attempts: %w", attempt, err)
	}
	return nil
}

// Reset wipes all local data; remote data is untouched
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// PushSession writes a snapshot of the session and syncs when AutoSync is on
func (c *Client) PushSession(ctx context.Context, session *models.Session, turns []models.Turn) error {
	if session == nil || session.SessionID == "" {
		return errors.New("session must have an ID")
	}
	data, err := json.Marshal(Snapshot{Session: session, Turns: turns, PushedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	c.mu.Lock()
	err = c.kv.Set([]byte(SessionKey(session.SessionID)), data)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", SessionKey(session.SessionID), err)
	}
	c.logger.Debug("session pushed", "session", session.SessionID, "rows", len(session.Rows))
	return c.syncIfEnabled(ctx)
}

// PullSession reads a session snapshot from the local replica
func (c *Client) PullSession(sessionID string) (*Snapshot, error) {
	c.mu.Lock()
	data, err := c.kv.Get([]byte(SessionKey(sessionID)))
	c.mu.Unlock()
	if err != nil || data == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, sessionID)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", sessionID, err)
	}
	if snap.Session == nil {
		return nil, fmt.Errorf("snapshot %s has no session", sessionID)
	}
	return &snap, nil
}

// ListSessionIDs returns the IDs of all synced sessions in sorted order
func (c *Client) ListSessionIDs() ([]string, error) {
	c.mu.Lock()
	keys, err := c.kv.Keys()
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var ids []string
	for _, key := range keys {
		if id, ok := strings.CutPrefix(string(key), SessionPrefix); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteSession removes a session snapshot
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	err := c.kv.Delete([]byte(SessionKey(sessionID)))
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", SessionKey(sessionID), err)
	}
	return c.syncIfEnabled(ctx)
}

func (c *Client) syncIfEnabled(ctx context.Context) error {
	if !c.config.AutoSync {
		return nil
	}
	return c.Sync(ctx)
}

// SessionKey generates a key for a session snapshot
func SessionKey(sessionID string) string {
	return SessionPrefix + sessionID
}
