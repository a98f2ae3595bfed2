package java

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerRegistry tracks the sessions that are currently in the play phase.
// Usernames are matched case insensitively.
type PlayerRegistry struct {
	Logger *zap.Logger

	mu      sync.RWMutex
	players map[string]Session
	online  atomic.Int32
}

func NewPlayerRegistry(logger *zap.Logger) *PlayerRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PlayerRegistry{
		Logger:  logger,
		players: map[string]Session{},
	}
}

func registryKey(username string) string {
	return strings.ToLower(username)
}

// add registers s. A session of the same player that is still registered is
// closed, the player logged in from somewhere else.
func (r *PlayerRegistry) add(s Session) {
	r.mu.Lock()
	old, replaced := r.players[registryKey(s.Username)]
	r.players[registryKey(s.Username)] = s
	r.mu.Unlock()

	if replaced {
		r.Logger.Info("closing previous session of player", logSession(old)...)
		_ = old.Conn.ForceClose()
		return
	}
	r.online.Inc()
}

// remove unregisters s unless it was already replaced by a newer session.
func (r *PlayerRegistry) remove(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.players[registryKey(s.Username)]
	if !ok || cur.Conn != s.Conn {
		return
	}
	delete(r.players, registryKey(s.Username))
	r.online.Dec()
}

// Online returns the number of registered players.
func (r *PlayerRegistry) Online() int {
	return int(r.online.Load())
}

func (r *PlayerRegistry) Get(username string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.players[registryKey(username)]
	return s, ok
}

// Players returns all sessions whose username matches usernameRegex, sorted
// by username. An empty expression matches everyone.
func (r *PlayerRegistry) Players(usernameRegex string) ([]Session, error) {
	var re *regexp.Regexp
	if usernameRegex != "" {
		var err error
		re, err = regexp.Compile(usernameRegex)
		if err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	sessions := make([]Session, 0, len(r.players))
	for _, s := range r.players {
		if re != nil && !re.MatchString(s.Username) {
			continue
		}
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Username < sessions[j].Username
	})
	return sessions, nil
}

// Kick closes the connection of the player. The session handler sees the
// closed connection and returns, which unregisters the player.
func (r *PlayerRegistry) Kick(username string) error {
	s, ok := r.Get(username)
	if !ok {
		return ErrPlayerNotFound
	}

	r.Logger.Info("kicking player", logSession(s)...)
	return s.Conn.ForceClose()
}

// Track registers every session for as long as next handles it.
func (r *PlayerRegistry) Track(next SessionHandler) SessionHandler {
	return SessionHandlerFunc(func(ctx context.Context, s Session) error {
		r.add(s)
		defer r.remove(s)
		return next.HandleSession(ctx, s)
	})
}
