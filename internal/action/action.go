// Package action заменяет разрозненные флаги "идёт загрузка" явным состоянием действия.
package action

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State представляет состояние пользовательского действия.
type State int

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// MarshalText позволяет отдавать состояние в JSON строкой.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText разбирает состояние из строки, которую пишет MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "pending":
		*s = Pending
	case "succeeded":
		*s = Succeeded
	case "failed":
		*s = Failed
	default:
		return fmt.Errorf("unknown action state %q", text)
	}
	return nil
}

// ErrInFlight возвращается, если действие уже выполняется.
var ErrInFlight = errors.New("action already in progress")

// Action хранит состояние одного действия и не даёт запустить его повторно, пока оно не завершилось.
type Action struct {
	mu    sync.Mutex
	state State
	err   error
}

// Start переводит действие в Pending. Возвращает false, если оно уже выполняется.
func (a *Action) Start() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Pending {
		return false
	}
	a.state = Pending
	a.err = nil
	return true
}

// Finish фиксирует результат выполнения.
func (a *Action) Finish(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	if err != nil {
		a.state = Failed
		return
	}
	a.state = Succeeded
}

// Reset возвращает действие в Idle, если оно не выполняется.
func (a *Action) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Pending {
		a.state = Idle
		a.err = nil
	}
}

func (a *Action) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Action) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Run выполняет fn под защитой от повторного запуска.
func (a *Action) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !a.Start() {
		return ErrInFlight
	}
	err := fn(ctx)
	a.Finish(err)
	return err
}

// Snapshot представляет состояние действия для отдачи клиенту.
type Snapshot struct {
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

func (a *Action) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Snapshot{State: a.state}
	if a.err != nil {
		s.Error = a.err.Error()
	}
	return s
}

// Registry выдаёт отдельное действие на каждый ключ (например, клиент+тур).
type Registry struct {
	mu      sync.Mutex
	actions map[string]*Action
}

func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]*Action)}
}

func (r *Registry) Get(key string) *Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[key]
	if !ok {
		a = &Action{}
		r.actions[key] = a
	}
	return a
}

// Forget удаляет завершённое действие, чтобы реестр не рос бесконечно.
func (r *Registry) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.actions[key]; ok && a.State() != Pending {
		delete(r.actions, key)
	}
}
