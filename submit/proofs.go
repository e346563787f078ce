// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/luxfi/geth/common"
)

const (
	ProofFile  = "proof.json"
	PublicFile = "public.json"
)

// DirProofSource reads snarkjs output from a directory. A subdirectory
// named after the burn transaction hash takes precedence over files at
// the top level.
type DirProofSource struct {
	Dir string
}

func (d DirProofSource) LoadProof(ctx context.Context, burnTx common.Hash) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, dir := range []string{filepath.Join(d.Dir, burnTx.Hex()), d.Dir} {
		proof, err := os.ReadFile(filepath.Join(dir, ProofFile))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		public, err := os.ReadFile(filepath.Join(dir, PublicFile))
		if err != nil {
			return nil, nil, err
		}
		return proof, public, nil
	}
	return nil, nil, fmt.Errorf("no %s for burn %s in %s: %w", ProofFile, burnTx.Hex(), d.Dir, fs.ErrNotExist)
}
