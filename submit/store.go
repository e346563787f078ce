// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submit

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
)

var recordPrefix = []byte("submission/")

// Record is a submission made for one burn.
type Record struct {
	BurnTx      common.Hash    `json:"burnTx"`
	Contract    common.Address `json:"contract"`
	Wallet      common.Address `json:"wallet"`
	Bid         string         `json:"bid"`
	TxHash      common.Hash    `json:"txHash"`
	Sender      common.Address `json:"sender"`
	Input       hexutil.Bytes  `json:"input,omitempty"`
	Confirmed   bool           `json:"confirmed"`
	Simulated   bool           `json:"simulated"`
	SubmittedAt int64          `json:"submittedAt"`
}

// Store keeps submission records keyed by burn transaction.
type Store struct {
	db database.Database
}

func NewStore(db database.Database) *Store {
	return &Store{db: db}
}

func recordKey(burnTx common.Hash) []byte {
	return append(append([]byte{}, recordPrefix...), burnTx.Bytes()...)
}

// Get returns the record of burnTx, or database.ErrNotFound.
func (s *Store) Get(burnTx common.Hash) (*Record, error) {
	raw, err := s.db.Get(recordKey(burnTx))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("corrupt submission record %s: %w", burnTx.Hex(), err)
	}
	return &rec, nil
}

func (s *Store) Put(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Put(recordKey(rec.BurnTx), raw)
}

func (s *Store) Delete(burnTx common.Hash) error {
	return s.db.Delete(recordKey(burnTx))
}

// List returns every record ordered by burn transaction hash.
func (s *Store) List() ([]Record, error) {
	it := s.db.NewIteratorWithPrefix(recordPrefix)
	defer it.Release()

	var out []Record
	for it.Next() {
		var rec Record
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return nil, fmt.Errorf("corrupt submission record %x: %w", it.Key(), err)
		}
		out = append(out, rec)
	}
	return out, it.Error()
}
