package keeper

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// NewLevelDB opens the ledger database. An empty path opens an in-memory
// database.
func NewLevelDB(path string, compactOnInit bool) (*leveldb.DB, error) {
	if path == "" {
		return leveldb.Open(storage.NewMemStorage(), nil)
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open level db %s: %w", path, err)
	}

	if compactOnInit {
		log.Info().Str("path", path).Msg("compacting ledger...")
		if err := db.CompactRange(util.Range{}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to compact level db %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("ledger compacted")
	}
	return db, nil
}
