// Package ovsdb implements the client side of the OVSDB management
// protocol: JSON-RPC 1.0 over a byte stream, request/response
// correlation for concurrent calls, and routing of server-initiated
// notifications to monitor sessions and lock callbacks.
package ovsdb

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/holodekk/ovsdb/pkg/dbmonitor"
	"github.com/holodekk/ovsdb/pkg/dbschema"
	"github.com/holodekk/ovsdb/pkg/dbtransaction"
)

// pending is one in-flight call slot. The receive loop (or the
// teardown path) fills response or err, then closes done. Ownership
// of a slot passes to whoever removes it from the pending map.
type pending struct {
	done     chan struct{}
	response json.RawMessage
	err      error
}

// OVSDB is one protocol session over a single connection. All methods
// are safe for concurrent use; calls issued concurrently are
// correlated back to their callers regardless of response order.
type OVSDB struct {
	conn net.Conn
	ID   string

	dec *json.Decoder
	enc *json.Encoder

	// encMu serializes writes; encoded requests must not interleave.
	encMu sync.Mutex

	// mu guards pending, callbacks, the lock callbacks, counter and
	// the closed flag.
	mu        sync.Mutex
	pending   map[uint64]*pending
	callbacks map[string]dbmonitor.Callback
	counter   uint64
	closed    bool
	closeErr  error

	lockedCallback func(string)
	stolenCallback func(string)

	timeout     time.Duration
	log         zerolog.Logger
	synchronize *synchronize
}

// Option configures a session at dial time.
type Option func(*OVSDB)

// WithLogger attaches a structured logger. Sessions log nothing by
// default.
func WithLogger(log zerolog.Logger) Option {
	return func(db *OVSDB) { db.log = log }
}

// WithTimeout bounds every call issued through Call. Zero, the
// default, means calls block until the response or teardown.
func WithTimeout(d time.Duration) Option {
	return func(db *OVSDB) { db.timeout = d }
}

// Dial connects to an OVSDB server and starts the receive loop.
func Dial(network, address string, opts ...Option) (*OVSDB, error) {
	conn, err := DialNet(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s %s", network, address)
	}
	return newSession(conn, opts...), nil
}

func newSession(conn net.Conn, opts ...Option) *OVSDB {
	db := &OVSDB{
		conn:      conn,
		ID:        "id" + uuid.NewString(),
		dec:       json.NewDecoder(conn),
		enc:       json.NewEncoder(conn),
		pending:   make(map[uint64]*pending),
		callbacks: make(map[string]dbmonitor.Callback),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}

	go db.loop()

	return db
}

// Close tears the session down. Pending calls fail with ErrClosed and
// monitors receive a terminal failure callback.
func (db *OVSDB) Close() error {
	return db.teardown(ErrClosed)
}

// teardown marks the session dead exactly once, then fails every
// pending slot and monitor callback outside the lock.
func (db *OVSDB) teardown(cause error) error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	db.closeErr = cause

	slots := db.pending
	db.pending = make(map[uint64]*pending)
	cbs := make([]dbmonitor.Callback, 0, len(db.callbacks))
	for _, cb := range db.callbacks {
		cbs = append(cbs, cb)
	}
	db.callbacks = make(map[string]dbmonitor.Callback)
	db.mu.Unlock()

	err := db.conn.Close()

	for _, p := range slots {
		p.err = cause
		close(p.done)
	}
	for _, cb := range cbs {
		cb(nil, cause)
	}

	if db.synchronize != nil {
		db.synchronize.setError()
	}
	return err
}

// incoming message header. A response carries ID plus result or
// error; a notification carries Method plus Params and a null ID.
type message struct {
	Method string             `json:"method"`
	Params []*json.RawMessage `json:"params"`
	Result json.RawMessage    `json:"result"`
	Error  *json.RawMessage   `json:"error"`
	ID     interface{}        `json:"id"`
}

// loop receives every incoming message, answering echoes, routing
// notifications and completing pending calls. It owns the decoder.
func (db *OVSDB) loop() {
	for {
		var msg message
		if err := db.dec.Decode(&msg); err != nil {
			db.mu.Lock()
			alreadyClosed := db.closed
			db.mu.Unlock()
			if !alreadyClosed {
				db.log.Warn().Err(err).Msg("receive failed, closing session")
				db.teardown(&TransportError{Err: err})
			}
			return
		}

		db.log.Debug().Str("method", msg.Method).Interface("id", msg.ID).Msg("received")

		switch msg.Method {
		case "echo":
			db.send(map[string]interface{}{
				"result": msg.Params,
				"error":  nil,
				"id":     "echo",
			})
		case "update", "update2":
			db.routeUpdate(msg.Params, 1)
		case "update3":
			// params are [monitor-id, last-txn-id, updates]
			db.routeUpdate(msg.Params, 2)
		case "locked":
			db.routeLock(msg.Params, false)
		case "stolen":
			db.routeLock(msg.Params, true)
		default:
			db.complete(msg)
		}
	}
}

// routeUpdate dispatches one update notification; the monitor id is
// params[0] and the table updates sit at params[idx]. Malformed
// frames, null elements included, are discarded without disturbing
// the session.
func (db *OVSDB) routeUpdate(params []*json.RawMessage, idx int) {
	if len(params) <= idx || params[0] == nil || params[idx] == nil {
		db.log.Warn().Msg("malformed update notification discarded")
		return
	}
	var id string
	if err := json.Unmarshal(*params[0], &id); err != nil {
		db.log.Warn().Err(err).Msg("malformed update notification discarded")
		return
	}

	db.mu.Lock()
	cb := db.callbacks[id]
	db.mu.Unlock()

	if cb == nil {
		db.log.Debug().Str("monitor", id).Msg("update for unknown monitor discarded")
		return
	}
	cb(*params[idx], nil)
}

func (db *OVSDB) routeLock(params []*json.RawMessage, stolen bool) {
	db.mu.Lock()
	cb := db.lockedCallback
	if stolen {
		cb = db.stolenCallback
	}
	db.mu.Unlock()

	if cb == nil || len(params) == 0 || params[0] == nil {
		return
	}
	var name string
	if json.Unmarshal(*params[0], &name) == nil {
		cb(name)
	}
}

// complete resolves the pending call named by a response's id.
func (db *OVSDB) complete(msg message) {
	fid, ok := msg.ID.(float64)
	if !ok {
		db.log.Warn().Interface("id", msg.ID).Msg("response without numeric id discarded")
		return
	}
	id := uint64(fid)

	db.mu.Lock()
	p, ok := db.pending[id]
	if ok {
		delete(db.pending, id)
	}
	db.mu.Unlock()

	if !ok {
		// late response for a timed out or cancelled call
		db.log.Debug().Uint64("id", id).Msg("response for unknown call discarded")
		return
	}

	if msg.Error != nil {
		rpcErr := &RPCError{}
		if err := json.Unmarshal(*msg.Error, rpcErr); err != nil {
			rpcErr.Name = string(*msg.Error)
		}
		p.err = rpcErr
	} else {
		p.response = msg.Result
	}
	close(p.done)
}

func (db *OVSDB) send(v interface{}) error {
	db.log.Debug().Interface("frame", v).Msg("sending")
	db.encMu.Lock()
	err := db.enc.Encode(v)
	db.encMu.Unlock()
	if err != nil {
		db.teardown(&TransportError{Err: err})
		if db.synchronize != nil {
			db.synchronize.waitConnected()
		}
		return &TransportError{Err: err}
	}
	return nil
}

func (db *OVSDB) dropPending(id uint64) {
	db.mu.Lock()
	delete(db.pending, id)
	db.mu.Unlock()
}

// Call sends a request and blocks until the matching response, the
// session timeout, or teardown. The raw result is returned for the
// caller to unmarshal. idref, when non-nil, receives the request id
// before the request is sent, so the call can be cancelled.
func (db *OVSDB) Call(method string, args interface{}, idref *uint64) (json.RawMessage, error) {
	return db.CallContext(context.Background(), method, args, idref)
}

// CallContext is Call bounded by a context.
func (db *OVSDB) CallContext(ctx context.Context, method string, args interface{}, idref *uint64) (json.RawMessage, error) {
	if db.synchronize != nil && db.synchronize.waitConnected() {
		return nil, ErrClosed
	}

	db.mu.Lock()
	if db.closed {
		err := db.closeErr
		db.mu.Unlock()
		return nil, err
	}
	id := db.counter
	db.counter++
	p := &pending{done: make(chan struct{})}
	db.pending[id] = p
	db.mu.Unlock()

	if idref != nil {
		*idref = id
	}

	req := map[string]interface{}{
		"method": method,
		"params": args,
		"id":     id,
	}
	if err := db.send(req); err != nil {
		db.dropPending(id)
		return nil, err
	}

	var timeout <-chan time.Time
	if db.timeout > 0 {
		timer := time.NewTimer(db.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-p.done:
	case <-timeout:
		db.dropPending(id)
		return nil, errors.Wrapf(ErrTimeout, "%s (id %d)", method, id)
	case <-ctx.Done():
		db.dropPending(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrapf(ErrTimeout, "%s (id %d)", method, id)
		}
		return nil, errors.Wrapf(ErrCancelled, "%s (id %d)", method, id)
	}

	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

// Notify sends a request with a null id; the server will not respond.
func (db *OVSDB) Notify(method string, args interface{}) error {
	return db.send(map[string]interface{}{
		"method": method,
		"params": args,
		"id":     nil,
	})
}

// AddCallback routes update notifications carrying the given monitor
// id to cb.
func (db *OVSDB) AddCallback(id string, cb dbmonitor.Callback) {
	db.mu.Lock()
	db.callbacks[id] = cb
	db.mu.Unlock()
}

// RemoveCallback stops routing updates for a monitor id.
func (db *OVSDB) RemoveCallback(id string) {
	db.mu.Lock()
	delete(db.callbacks, id)
	db.mu.Unlock()
}

// ListDbs returns the database names the server hosts.
func (db *OVSDB) ListDbs() ([]string, error) {
	response, err := db.Call("list_dbs", []interface{}{}, nil)
	if err != nil {
		return nil, err
	}
	var dbs []string
	if err := json.Unmarshal(response, &dbs); err != nil {
		return nil, errors.Wrap(err, "list_dbs response")
	}
	return dbs, nil
}

// RawSchema fetches a database schema as undecoded JSON.
func (db *OVSDB) RawSchema(database string) (json.RawMessage, error) {
	return db.Call("get_schema", []string{database}, nil)
}

// GetSchema fetches and parses a database schema.
func (db *OVSDB) GetSchema(database string) (*dbschema.Schema, error) {
	raw, err := db.RawSchema(database)
	if err != nil {
		return nil, err
	}
	return dbschema.Parse(raw)
}

// CheckSchema verifies that the schema this client was built against
// is structurally identical to the one the server is serving.
func (db *OVSDB) CheckSchema(compiled *dbschema.Schema) error {
	server, err := db.GetSchema(compiled.Name)
	if err != nil {
		return err
	}
	return compiled.Compatible(server)
}

// Echo verifies the connection is alive.
func (db *OVSDB) Echo() error {
	payload := []string{db.ID}
	response, err := db.Call("echo", payload, nil)
	if err != nil {
		return err
	}
	var got []string
	if err := json.Unmarshal(response, &got); err != nil || len(got) != 1 || got[0] != db.ID {
		return errors.New("echo response does not match request")
	}
	return nil
}

// Transaction starts an empty transaction against one database.
func (db *OVSDB) Transaction(database string) *dbtransaction.Transaction {
	return dbtransaction.New(db, database)
}

// Monitor creates an inactive monitor session with a fresh id.
// Register tables on it, then Start it.
func (db *OVSDB) Monitor(database string) *dbmonitor.Monitor {
	return &dbmonitor.Monitor{
		OVSDB:    db,
		Database: database,
		ID:       "mon" + uuid.NewString(),
	}
}

// RegisterLockedCallback is invoked when a previously contended lock
// is granted to this client.
func (db *OVSDB) RegisterLockedCallback(cb func(string)) {
	db.mu.Lock()
	db.lockedCallback = cb
	db.mu.Unlock()
}

// RegisterStolenCallback is invoked when another client steals a lock
// this client held.
func (db *OVSDB) RegisterStolenCallback(cb func(string)) {
	db.mu.Lock()
	db.stolenCallback = cb
	db.mu.Unlock()
}

type lockReply struct {
	Locked bool `json:"locked"`
}

func (db *OVSDB) lockOp(op, id string) (bool, error) {
	response, err := db.Call(op, []string{id}, nil)
	if err != nil {
		return false, err
	}
	var reply lockReply
	if err := json.Unmarshal(response, &reply); err != nil {
		return false, errors.Wrapf(err, "%s response", op)
	}
	return reply.Locked, nil
}

// Lock requests the named lock. False means the lock is contended;
// the locked callback fires when it is eventually granted.
func (db *OVSDB) Lock(id string) (bool, error) {
	return db.lockOp("lock", id)
}

// Steal takes the named lock even if another client holds it.
func (db *OVSDB) Steal(id string) (bool, error) {
	return db.lockOp("steal", id)
}

// Unlock releases the named lock.
func (db *OVSDB) Unlock(id string) error {
	_, err := db.Call("unlock", []string{id}, nil)
	return err
}
