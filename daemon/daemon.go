// Package daemon wires the core pipeline (state, pool, block) to storage
// and a mining loop (C11, SPEC_FULL.md §4.11). It plays the role the
// teacher's modules/consensus + modules/blockcreator pair together play:
// one lock-guarded struct holding the live index, a background goroutine
// that repeatedly prepares/mines/validates/commits blocks, and a logger
// recording STARTUP/SHUTDOWN/CRITICAL lines — but with no P2P layer, since
// SPEC_FULL.md's non-goals exclude a gossip/networking protocol.
package daemon

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/uqoin/uqoin/block"
	"github.com/uqoin/uqoin/build"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/logging"
	"github.com/uqoin/uqoin/pool"
	"github.com/uqoin/uqoin/state"
	"github.com/uqoin/uqoin/storage"
)

// Config collects the knobs an operator sets on startup.
type Config struct {
	StorePath    string
	LogPath      string
	ValidatorKey crypto.SecretKey
	Complexity   uint64
	GroupsMax    int
	MineInterval time.Duration
}

// Daemon owns the running node: the live state index, the pending-group
// pool, the on-disk log, and the mining loop that advances all three
// together.
type Daemon struct {
	cfg Config
	log *logging.Logger

	mu    sync.RWMutex
	state *state.State
	pool  *pool.Pool
	store *storage.Store

	stop chan struct{}
	done chan struct{}
}

// New opens the store, replays every persisted block into a fresh State in
// increasing bix order, and starts the mining loop.
func New(cfg Config) (*Daemon, error) {
	if cfg.MineInterval <= 0 {
		cfg.MineInterval = time.Second
	}
	log, err := logging.New(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(storage.Metadata{Header: "uqoin", Version: "0.1"}, cfg.StorePath)
	if err != nil {
		log.Close()
		return nil, err
	}

	d := &Daemon{
		cfg:   cfg,
		log:   log,
		state: state.New(),
		pool:  pool.New(),
		store: store,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	if err := d.replay(); err != nil {
		store.Close()
		log.Close()
		return nil, err
	}

	go d.mineLoop()
	return d, nil
}

// replay rolls every block from 1 up to the store's current block count
// forward into a fresh State, in order, exactly as spec.md's roll-up is
// defined to be applied.
func (d *Daemon) replay() error {
	count, err := d.store.BlockCount()
	if err != nil {
		return err
	}
	var prevHash crypto.W = state.GenesisHash
	var prevOffset uint64
	for bix := uint64(1); bix <= count; bix++ {
		blk, ok, err := d.store.GetBlock(bix)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("daemon: replay: missing block %d", bix)
		}
		txs, err := d.store.GetTransactions(prevOffset+1, blk.Size)
		if err != nil {
			return err
		}
		view := state.BlockView{HashPrev: prevHash, Hash: blk.Hash, Validator: blk.Validator}
		d.state.RollUp(bix, prevOffset, view, txs)
		prevHash = blk.Hash
		prevOffset += blk.Size
	}
	d.log.Printf("replayed %d blocks", count)
	return nil
}

// State returns the live state index. Satisfies api.Backend.
func (d *Daemon) State() *state.State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Store returns the on-disk log. Satisfies api.Backend.
func (d *Daemon) Store() *storage.Store {
	return d.store
}

// Pool lets external callers (e.g. a future ingestion route) submit groups.
func (d *Daemon) Pool() *pool.Pool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pool
}

// Close stops the mining loop and closes the store and log, in that order.
func (d *Daemon) Close() error {
	close(d.stop)
	<-d.done

	var errs []string
	if err := d.store.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := d.log.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("daemon: close: %v", errs)
	}
	return nil
}

// mineLoop periodically prepares pending groups from the pool, mines a
// block over them, validates it locally, appends it to storage and rolls
// the state forward — the single-node analogue of the teacher's
// blockcreator.SolveBlocks loop, without a consensus set to subscribe to.
func (d *Daemon) mineLoop() {
	defer close(d.done)
	ticker := time.NewTicker(d.cfg.MineInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			if err := d.mineOnce(); err != nil {
				d.log.Critical(err)
			}
		}
	}
}

func (d *Daemon) mineOnce() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	validator := crypto.W(d.cfg.ValidatorKey.Public())
	txs, senders, err := d.pool.Prepare(rand.Reader, d.state, d.cfg.ValidatorKey, d.cfg.GroupsMax)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	prev := d.state.Last()
	msg := block.Msg(prev.Hash, validator, txs)
	limit := block.Target(d.cfg.Complexity, len(txs))
	miner := block.NewMiner(rand.Reader, msg, limit)
	nonce, _, ok, err := miner.Next(1 << 22)
	if err != nil {
		return fmt.Errorf("mine: %w", err)
	}
	if !ok {
		return nil // exhausted the iteration cap this tick; try again next tick.
	}

	blk, err := block.Build(prev, validator, txs, nonce, d.cfg.Complexity, d.state, senders)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := block.Validate(blk, txs, prev, d.cfg.Complexity, d.state, senders); err != nil {
		build.Severe("mined block failed local validation", err)
		return err
	}

	bix := prev.Bix + 1
	if err := d.store.PushBlock(bix, blk, txs); err != nil {
		return fmt.Errorf("push block: %w", err)
	}

	view := state.BlockView{HashPrev: prev.Hash, Hash: blk.Hash, Validator: validator}
	d.state.RollUp(bix, prev.Offset, view, txs)
	d.pool.RollUp(txs, d.state)

	d.log.Printf("mined block %d with %d transactions", bix, len(txs))
	return nil
}
