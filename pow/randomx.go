package pow

import (
	"runtime"
	"sync"

	"git.gammaspectra.live/P2Pool/go-randomx/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/ulogger"
	fasthex "github.com/tmthrgd/go-hex"
)

// randomXVM is a VM initialised for one seed key. A VM is not safe for concurrent use, calls are
// serialised on mu.
type randomXVM struct {
	mu      sync.Mutex
	cache   *randomx.Cache
	dataset *randomx.Dataset
	vm      *randomx.VM
	closed  bool
}

func (v *randomXVM) hash(input []byte) ([32]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var out [32]byte

	if v.closed {
		return out, errors.NewProcessingError("randomx vm was evicted")
	}

	v.vm.CalculateHash(input, &out)
	runtime.KeepAlive(input)

	return out, nil
}

func (v *randomXVM) close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	v.closed = true

	if v.vm != nil {
		v.vm.Close()
	}

	if v.dataset != nil {
		v.dataset.Close()
	}

	if v.cache != nil {
		v.cache.Close()
	}
}

// RandomXFactory keeps an LRU of RandomX VMs keyed by seed, so consecutive headers mined on the same
// seed reuse an initialised VM.
type RandomXFactory struct {
	logger  ulogger.Logger
	flags   randomx.Flags
	fullMem bool
	mu      sync.Mutex
	vms     *lru.Cache[string, *randomXVM]
}

func NewRandomXFactory(logger ulogger.Logger, maxVMs int, fullMem bool) (*RandomXFactory, error) {
	if maxVMs < 1 {
		maxVMs = 1
	}

	vms, err := lru.NewWithEvict[string, *randomXVM](maxVMs, func(key string, vm *randomXVM) {
		vm.close()
	})
	if err != nil {
		return nil, errors.NewConfigurationError("cannot create randomx vm cache", err)
	}

	flags := randomx.GetFlags()
	if fullMem {
		flags |= randomx.RANDOMX_FLAG_FULL_MEM
	}

	return &RandomXFactory{
		logger:  logger,
		flags:   flags,
		fullMem: fullMem,
		vms:     vms,
	}, nil
}

// Hash returns the RandomX hash of input for the given seed key.
func (f *RandomXFactory) Hash(key, input []byte) ([32]byte, error) {
	vm, err := f.getOrCreate(key)
	if err != nil {
		return [32]byte{}, err
	}

	return vm.hash(input)
}

func (f *RandomXFactory) getOrCreate(key []byte) (*randomXVM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := string(key)
	if vm, ok := f.vms.Get(k); ok {
		return vm, nil
	}

	f.logger.Infof("[RandomX] initialising vm for seed %s", fasthex.EncodeToString(key))

	vm, err := f.newVM(key)
	if err != nil {
		return nil, err
	}

	f.vms.Add(k, vm)

	return vm, nil
}

func (f *RandomXFactory) newVM(key []byte) (*randomXVM, error) {
	v := &randomXVM{}

	var err error

	if v.cache, err = randomx.NewCache(f.flags); err != nil {
		return nil, errors.NewProcessingError("cannot allocate randomx cache", err)
	}

	v.cache.Init(key)

	if f.fullMem {
		if v.dataset, err = randomx.NewDataset(f.flags); err != nil {
			v.close()
			return nil, errors.NewProcessingError("cannot allocate randomx dataset", err)
		}

		v.dataset.InitDatasetParallel(v.cache, runtime.GOMAXPROCS(0))
	}

	if v.vm, err = randomx.NewVM(f.flags, v.cache, v.dataset); err != nil {
		v.close()
		return nil, errors.NewProcessingError("cannot create randomx vm", err)
	}

	return v, nil
}

// Close releases every cached VM.
func (f *RandomXFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.vms.Purge()
}
