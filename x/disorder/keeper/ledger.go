package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/nyxanic/disorder/x/disorder/types"
)

func (p *Program) writeOptions() *opt.WriteOptions {
	return &opt.WriteOptions{Sync: p.sync}
}

func (p *Program) loadSequence() (uint64, error) {
	raw, err := p.db.Get(types.SequenceKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, types.ErrLedger.Wrapf("read sequence: %v", err)
	}
	if len(raw) != 8 {
		return 0, types.ErrLedger.Wrapf("corrupt sequence of %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// commit appends rec to the ledger. The record and the new sequence number
// are written in one batch, so a failed write leaves the ledger unchanged.
func (p *Program) commit(rec types.Record) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec.Seq = p.seq + 1
	rec.CommittedAt = p.now().UTC()
	raw, err := json.Marshal(rec)
	if err != nil {
		return 0, types.ErrLedger.Wrapf("encode record: %v", err)
	}

	batch := new(leveldb.Batch)
	batch.Put(types.RecordKey(rec.Seq), raw)
	batch.Put(types.SequenceKey, binary.BigEndian.AppendUint64(nil, rec.Seq))
	if err := p.db.Write(batch, p.writeOptions()); err != nil {
		return 0, types.ErrLedger.Wrapf("commit record %d: %v", rec.Seq, err)
	}
	p.seq = rec.Seq
	return rec.Seq, nil
}

// LastSeq returns the sequence number of the newest committed record, or 0.
func (p *Program) LastSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// GetRecord returns the committed record with sequence number seq.
func (p *Program) GetRecord(ctx context.Context, seq uint64) (*types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := p.db.Get(types.RecordKey(seq), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, types.ErrRecordNotFound.Wrapf("seq %d", seq)
	}
	if err != nil {
		return nil, types.ErrLedger.Wrapf("read record %d: %v", seq, err)
	}
	var rec types.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, types.ErrLedger.Wrapf("decode record %d: %v", seq, err)
	}
	return &rec, nil
}

// Records returns up to limit records starting at sequence number from, in
// sequence order. limit is capped at the ledger scan maximum.
func (p *Program) Records(ctx context.Context, from uint64, limit int) ([]types.Record, error) {
	if limit <= 0 || limit > p.maxScan {
		limit = p.maxScan
	}
	rng := util.BytesPrefix(types.RecordKeyPrefix)
	rng.Start = types.RecordKey(from)

	iter := p.db.NewIterator(rng, nil)
	defer iter.Release()

	out := make([]types.Record, 0, limit)
	for len(out) < limit && iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec types.Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, types.ErrLedger.Wrapf("decode record at %x: %v", iter.Key(), err)
		}
		out = append(out, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, types.ErrLedger.Wrapf("scan records: %v", err)
	}
	return out, nil
}
