// Package leveldb is an embedded key value blockchain backend.
package leveldb

import (
	"context"
	"encoding/binary"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	"github.com/btcsuite/goleveldb/leveldb/storage"
	"github.com/btcsuite/goleveldb/leveldb/util"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/stores/blockchain/options"
	"github.com/tari-project/tari-sub016/ulogger"
)

// key prefixes
var (
	headerPrefix   = []byte("h")
	badBlockPrefix = []byte("b")
	seedPrefix     = []byte("s")
	tipKey         = []byte("t")
)

type LevelDB struct {
	db     *leveldb.DB
	logger ulogger.Logger

	// serialises the exists check and the batch write of InsertChainHeaders
	writeMu sync.Mutex
}

// New opens the database at dataFolder joined with the url path, or an in-memory database when the
// url host is "memory" (leveldb://memory).
func New(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (*LevelDB, error) {
	logger = logger.New("bcldb")

	var (
		db  *leveldb.DB
		err error
	)

	if storeURL.Host == "memory" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		path := filepath.Join(dataFolder, storeURL.Host, storeURL.Path)
		logger.Infof("Using leveldb: %s", path)

		db, err = leveldb.OpenFile(path, &opt.Options{Compression: opt.NoCompression})
	}

	if err != nil {
		return nil, errors.NewStorageUnavailableError("failed to open leveldb", err)
	}

	return &LevelDB{db: db, logger: logger}, nil
}

func key(prefix, suffix []byte) []byte {
	k := make([]byte, 0, len(prefix)+len(suffix))
	k = append(k, prefix...)

	return append(k, suffix...)
}

func (l *LevelDB) GetChainHeader(_ context.Context, hash model.FixedHash) (*model.ChainHeader, error) {
	value, err := l.db.Get(key(headerPrefix, hash[:]), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.NewNotFoundError("header %s not found", hash)
		}

		return nil, errors.NewStorageError("failed to get header %s", hash, err)
	}

	return decodeChainHeader(value)
}

func (l *LevelDB) HeaderExists(_ context.Context, hash model.FixedHash) (bool, error) {
	exists, err := l.db.Has(key(headerPrefix, hash[:]), nil)
	if err != nil {
		return false, errors.NewStorageError("failed to check header %s", hash, err)
	}

	return exists, nil
}

func (l *LevelDB) GetTipHash(_ context.Context) (model.FixedHash, error) {
	var hash model.FixedHash

	value, err := l.db.Get(tipKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return hash, errors.NewNotFoundError("no chain tip stored")
		}

		return hash, errors.NewStorageError("failed to get tip", err)
	}

	if len(value) != len(hash) {
		return hash, errors.NewStorageError("stored tip has %d bytes", len(value))
	}

	copy(hash[:], value)

	return hash, nil
}

func (l *LevelDB) InsertChainHeaders(ctx context.Context, headers []*model.ChainHeader, opts ...options.InsertHeadersOption) error {
	if len(headers) == 0 {
		return nil
	}

	o := options.ProcessInsertHeadersOptions(opts...)

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	batch := new(leveldb.Batch)
	inBatch := make(map[model.FixedHash]struct{}, len(headers))

	for _, ch := range headers {
		hash := ch.Hash()

		exists, err := l.HeaderExists(ctx, hash)
		if err != nil {
			return err
		}

		if _, dup := inBatch[hash]; exists || dup {
			return errors.NewHeaderAlreadyExistsError("header %s already exists", hash)
		}

		inBatch[hash] = struct{}{}

		batch.Put(key(headerPrefix, hash[:]), encodeChainHeader(ch))
	}

	lowest := make(map[string]uint64, len(o.MoneroSeeds))

	for _, seed := range o.MoneroSeeds {
		if height, ok := lowest[string(seed.Key)]; ok && height <= seed.Height {
			continue
		}

		lowest[string(seed.Key)] = seed.Height
	}

	for seed, seedHeight := range lowest {
		height, found, err := l.GetMoneroSeedHeight(ctx, []byte(seed))
		if err != nil {
			return err
		}

		if !found || seedHeight < height {
			batch.Put(key(seedPrefix, []byte(seed)), binary.BigEndian.AppendUint64(nil, seedHeight))
		}
	}

	if !o.SkipTipUpdate {
		tip := headers[len(headers)-1].Hash()
		batch.Put(tipKey, tip[:])
	}

	if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.NewStorageError("failed to write %d headers", len(headers), err)
	}

	return nil
}

func (l *LevelDB) InsertBadBlock(_ context.Context, hash model.FixedHash, height uint64, reason string) error {
	value := binary.BigEndian.AppendUint64(nil, height)
	value = append(value, reason...)

	if err := l.db.Put(key(badBlockPrefix, hash[:]), value, nil); err != nil {
		return errors.NewStorageError("failed to insert bad block %s", hash, err)
	}

	return nil
}

func (l *LevelDB) IsBadBlock(_ context.Context, hash model.FixedHash) (bool, error) {
	exists, err := l.db.Has(key(badBlockPrefix, hash[:]), nil)
	if err != nil {
		return false, errors.NewStorageError("failed to check bad block %s", hash, err)
	}

	return exists, nil
}

func (l *LevelDB) GetBadBlocks(_ context.Context) ([]model.FixedHash, error) {
	iter := l.db.NewIterator(util.BytesPrefix(badBlockPrefix), nil)
	defer iter.Release()

	hashes := make([]model.FixedHash, 0)

	for iter.Next() {
		var hash model.FixedHash
		copy(hash[:], iter.Key()[len(badBlockPrefix):])
		hashes = append(hashes, hash)
	}

	if err := iter.Error(); err != nil {
		return nil, errors.NewStorageError("failed to iterate bad blocks", err)
	}

	return hashes, nil
}

func (l *LevelDB) GetMoneroSeedHeight(_ context.Context, seed []byte) (uint64, bool, error) {
	value, err := l.db.Get(key(seedPrefix, seed), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, false, nil
		}

		return 0, false, errors.NewStorageError("failed to get monero seed height", err)
	}

	if len(value) != 8 {
		return 0, false, errors.NewStorageError("stored seed height has %d bytes", len(value))
	}

	return binary.BigEndian.Uint64(value), true, nil
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

// value layout: uvarint header length, header bytes, accumulated data bytes
func encodeChainHeader(ch *model.ChainHeader) []byte {
	headerBytes := ch.Header().Bytes()
	accumulatedBytes := ch.AccumulatedData().Bytes()

	value := make([]byte, 0, binary.MaxVarintLen64+len(headerBytes)+len(accumulatedBytes))
	value = binary.AppendUvarint(value, uint64(len(headerBytes)))
	value = append(value, headerBytes...)

	return append(value, accumulatedBytes...)
}

func decodeChainHeader(value []byte) (*model.ChainHeader, error) {
	headerLen, n := binary.Uvarint(value)
	if n <= 0 || uint64(len(value)-n) < headerLen {
		return nil, errors.NewStorageError("stored header record is corrupt")
	}

	value = value[n:]

	header, err := model.NewBlockHeaderFromBytes(value[:headerLen])
	if err != nil {
		return nil, errors.NewStorageError("stored header is corrupt", err)
	}

	accumulatedData, err := model.NewBlockHeaderAccumulatedDataFromBytes(value[headerLen:])
	if err != nil {
		return nil, errors.NewStorageError("stored accumulated data is corrupt", err)
	}

	return model.TryConstructChainHeader(header, accumulatedData)
}
