package ovsdb

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// synchronize coordinates a reconnecting dialer with the calls and
// the receive loop of the session it currently fronts.
type synchronize struct {
	connected   condFlag
	initialized condFlag
	socketError condFlag
}

type condFlag struct {
	mu   sync.Mutex
	cond *sync.Cond
	val  bool
}

func newSynchronize() *synchronize {
	s := &synchronize{}
	s.connected.cond = sync.NewCond(&s.connected.mu)
	s.initialized.cond = sync.NewCond(&s.initialized.mu)
	s.socketError.cond = sync.NewCond(&s.socketError.mu)
	return s
}

func (f *condFlag) wait() {
	f.mu.Lock()
	for !f.val {
		f.cond.Wait()
	}
	f.mu.Unlock()
}

func (f *condFlag) set(v bool) {
	f.mu.Lock()
	f.val = v
	f.mu.Unlock()
	if v {
		f.cond.Broadcast()
	}
}

func (f *condFlag) get() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val
}

// waitConnected blocks while a reconnect is in progress. It reports
// whether it had to wait, in which case the caller's session pointer
// is stale and the call should be retried on the fresh session.
func (s *synchronize) waitConnected() bool {
	if s.connected.get() {
		return false
	}
	s.connected.wait()
	return true
}

func (s *synchronize) setConnected() {
	s.socketError.set(false)
	s.connected.set(true)
}

func (s *synchronize) setError() {
	s.connected.set(false)
	s.initialized.set(false)
	s.socketError.set(true)
}

// PersistentDial keeps a session alive across connection failures.
// Each address in addressList is a [network, address] pair; the
// dialer walks the list and, after exhausting it, sleeps for
// 1, 2, 4, 8, 8, ... seconds before starting over.
//
// initialize runs after every successful connect, re-establishing
// monitors and locks on the fresh session. PersistentDial blocks
// until the first initialize completes. The returned pointer is
// updated in place on every reconnect.
func PersistentDial(addressList [][2]string, initialize func(*OVSDB) error, opts ...Option) **OVSDB {
	var db *OVSDB
	state := newSynchronize()
	log := dialLogger(opts)

	go func() {
		idx := 0
		backoff := 1
		for {
			network, address := addressList[idx][0], addressList[idx][1]
			next, err := Dial(network, address, opts...)
			if err != nil {
				log.Warn().Err(err).Str("address", address).Msg("dial failed")
				idx++
				if idx == len(addressList) {
					time.Sleep(time.Duration(backoff) * time.Second)
					idx = 0
					if backoff < 8 {
						backoff *= 2
					}
				}
				continue
			}

			idx = 0
			backoff = 1
			db = next
			db.synchronize = state
			state.setConnected()

			if err := initialize(db); err != nil {
				log.Warn().Err(err).Msg("session initialize failed")
				db.Close()
				continue
			}
			state.initialized.set(true)
			state.socketError.wait()
			state.socketError.set(false)
		}
	}()

	state.initialized.wait()

	return &db
}

func dialLogger(opts []Option) zerolog.Logger {
	probe := &OVSDB{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(probe)
	}
	return probe.log
}
