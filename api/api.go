// Package api is the read-only JSON introspection surface (C12,
// SPEC_FULL.md §4.11). It never mutates core state — every route here
// reads from state.State/storage.Store and serializes a response; the only
// writer in the whole system is the daemon's own mining loop.
//
// Grounded on the teacher's api/*.go conventions (one handler per route,
// decoding path params via httprouter.Params, a typed Error with an
// HTTPStatusCode() the pkg/cli.DieWithError switch already knows how to
// read) and julienschmidt/httprouter itself, the teacher's own router.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/uqoin/uqoin/build"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/state"
	"github.com/uqoin/uqoin/storage"
)

// Error is a JSON-serializable API error, carrying its own HTTP status so
// pkg/cli-style callers can branch on it the way DieWithError does.
type Error struct {
	Message string `json:"message"`
	status  int
}

func (e Error) Error() string      { return e.Message }
func (e Error) HTTPStatusCode() int { return e.status }

func newError(status int, message string) Error {
	return Error{Message: message, status: status}
}

// Backend is the narrow read surface the API needs from the running
// daemon: the live state index and the on-disk block/transaction log.
type Backend interface {
	State() *state.State
	Store() *storage.Store
}

// Router builds the httprouter.Router serving every read-only route.
func Router(b Backend) *httprouter.Router {
	r := httprouter.New()
	r.GET("/state/coin/:coin", coinHandler(b))
	r.GET("/state/owner/:owner", ownerHandler(b))
	r.GET("/block/:bix", blockHandler(b))
	r.GET("/consensus", consensusHandler(b))
	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.status)
	_ = json.NewEncoder(w).Encode(err)
}

type coinInfoResponse struct {
	Coin    string `json:"coin"`
	Owner   string `json:"owner"`
	Order   uint64 `json:"order"`
	Counter uint64 `json:"counter"`
}

func coinHandler(b Backend) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		c, err := crypto.FromHex(ps.ByName("coin"))
		if err != nil {
			writeError(w, newError(http.StatusBadRequest, "malformed coin: "+err.Error()))
			return
		}
		info, ok := b.State().CoinInfo(c)
		if !ok {
			writeError(w, newError(http.StatusNotFound, "coin not found"))
			return
		}
		writeJSON(w, coinInfoResponse{
			Coin:    c.Hex(),
			Owner:   info.Owner.Hex(),
			Order:   info.Order,
			Counter: info.Counter,
		})
	}
}

type ownerCoinsResponse struct {
	Owner string              `json:"owner"`
	Coins map[uint64][]string `json:"coins_by_order"`
}

func ownerHandler(b Backend) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		owner, err := crypto.FromHex(ps.ByName("owner"))
		if err != nil {
			writeError(w, newError(http.StatusBadRequest, "malformed address: "+err.Error()))
			return
		}
		byOrder := b.State().CoinsByOrder(owner)
		out := make(map[uint64][]string, len(byOrder))
		for order, coins := range byOrder {
			hexCoins := make([]string, len(coins))
			for i, c := range coins {
				hexCoins[i] = c.Hex()
			}
			out[order] = hexCoins
		}
		writeJSON(w, ownerCoinsResponse{Owner: owner.Hex(), Coins: out})
	}
}

type blockResponse struct {
	Bix          uint64 `json:"bix"`
	Offset       uint64 `json:"offset"`
	Size         uint64 `json:"size"`
	HashPrev     string `json:"hash_prev"`
	Validator    string `json:"validator"`
	Nonce        string `json:"nonce"`
	Hash         string `json:"hash"`
	Transactions int    `json:"transaction_count"`
}

func blockHandler(b Backend) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		bix, err := parseUint(ps.ByName("bix"))
		if err != nil {
			writeError(w, newError(http.StatusBadRequest, "malformed block index: "+err.Error()))
			return
		}
		blk, ok, err := b.Store().GetBlock(bix)
		if err != nil {
			writeError(w, newError(http.StatusInternalServerError, err.Error()))
			return
		}
		if !ok {
			writeError(w, newError(http.StatusNotFound, "block not found"))
			return
		}
		writeJSON(w, blockResponse{
			Bix:          bix,
			Offset:       blk.Offset,
			Size:         blk.Size,
			HashPrev:     blk.HashPrev.Hex(),
			Validator:    blk.Validator.Hex(),
			Nonce:        blk.Nonce.Hex(),
			Hash:         blk.Hash.Hex(),
			Transactions: int(blk.Size),
		})
	}
}

type consensusResponse struct {
	Height  uint64 `json:"height"`
	Hash    string `json:"hash"`
	Version string `json:"version"`
}

func consensusHandler(b Backend) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		last := b.State().Last()
		writeJSON(w, consensusResponse{Height: last.Bix, Hash: last.Hash.Hex(), Version: build.Version.String()})
	}
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
