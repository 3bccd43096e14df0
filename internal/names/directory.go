// Package names keeps the id to display-name mapping learned from chat traffic.
// Iris has no user lookup endpoint, so every inbound message teaches the bot a name.
package names

import (
	"strings"
	"sync"

	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
)

// UnknownUser is shown for an empty player id.
const UnknownUser = "unknown user"

type Directory struct {
	mu     sync.RWMutex
	byID   map[domain.PlayerID]string
	byName map[string]domain.PlayerID
}

func NewDirectory() *Directory {
	return &Directory{
		byID:   make(map[domain.PlayerID]string),
		byName: make(map[string]domain.PlayerID),
	}
}

// Learn records (or refreshes) the display name for id.
func (d *Directory) Learn(id domain.PlayerID, name string) {
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.byID[id]; ok && prev != name {
		if d.byName[fold(prev)] == id {
			delete(d.byName, fold(prev))
		}
	}
	d.byID[id] = name
	d.byName[fold(name)] = id
}

// Name returns the display name for id, the raw id when unknown, or UnknownUser for "".
func (d *Directory) Name(id domain.PlayerID) string {
	if id == "" {
		return UnknownUser
	}
	d.mu.RLock()
	name, ok := d.byID[id]
	d.mu.RUnlock()
	if !ok {
		return string(id)
	}
	return name
}

// Resolve maps a mention ("@Alice", "Alice") or a known raw id to a player id.
func (d *Directory) Resolve(mention string) (domain.PlayerID, bool) {
	m := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(mention), "@"))
	if m == "" {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id, ok := d.byName[fold(m)]; ok {
		return id, true
	}
	if _, ok := d.byID[domain.PlayerID(m)]; ok {
		return domain.PlayerID(m), true
	}
	return "", false
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
