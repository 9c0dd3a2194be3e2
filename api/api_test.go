package api

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/uqoin/uqoin/build"
	"github.com/uqoin/uqoin/coin"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/state"
	"github.com/uqoin/uqoin/storage"
	"github.com/uqoin/uqoin/txn"
)

type testBackend struct {
	s *state.State
	st *storage.Store
}

func (b *testBackend) State() *state.State     { return b.s }
func (b *testBackend) Store() *storage.Store { return b.st }

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	st, err := storage.Open(storage.Metadata{Header: "uqoin", Version: "0.1"}, filepath.Join(t.TempDir(), "uqoin.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &testBackend{s: state.New(), st: st}
}

func TestCoinHandlerNotFound(t *testing.T) {
	b := newTestBackend(t)
	router := Router(b)

	req := httptest.NewRequest(http.MethodGet, "/state/coin/"+crypto.FromUint64(1).Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCoinHandlerFound(t *testing.T) {
	b := newTestBackend(t)

	minerKey, _ := crypto.GenerateKey(rand.Reader)
	miner := crypto.W(minerKey.Public())
	c, err := coin.Random(rand.Reader, miner)
	if err != nil {
		t.Fatalf("coin.Random: %v", err)
	}
	tx, err := txn.Build(rand.Reader, c, miner, minerKey, 0)
	if err != nil {
		t.Fatalf("txn.Build: %v", err)
	}
	view := state.BlockView{HashPrev: state.GenesisHash, Hash: crypto.FromUint64(99), Validator: miner}
	b.s.RollUp(1, 0, view, []txn.Transaction{tx})

	router := Router(b)
	req := httptest.NewRequest(http.MethodGet, "/state/coin/"+c.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConsensusHandler(t *testing.T) {
	b := newTestBackend(t)
	router := Router(b)

	req := httptest.NewRequest(http.MethodGet, "/consensus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp consensusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Version != build.Version.String() {
		t.Fatalf("expected version %s, got %s", build.Version.String(), resp.Version)
	}
}

func TestBlockHandlerMalformedIndex(t *testing.T) {
	b := newTestBackend(t)
	router := Router(b)

	req := httptest.NewRequest(http.MethodGet, "/block/not-a-number", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
