package scan

import (
	"sync"

	"obsidian-core/wire"
)

// batchKey identifies one transaction's worth of queued decryption work.
type batchKey struct {
	BlockHash wire.Hash
	Txid      wire.Hash
}

// BatchRunner is the out-of-band parallel trial-decryption collaborator
// described in spec.md §4.4: the scanner enqueues a block's outputs ahead of
// time via AddOutputs/Flush, and later blocks on CollectResults when it
// reaches the corresponding transaction during the main scan pass.
type BatchRunner interface {
	// AddOutputs registers one transaction's outputs for background
	// decryption against the given prepared IVKs. Must be called in block
	// order; does not block.
	AddOutputs(blockHash, txid wire.Hash, ivks []PreparedIVK, outputs []CompactOutput)
	// Flush blocks until every batch queued so far has been dispatched to a
	// worker. The caller must call Flush before scanning any block whose
	// outputs were registered via AddOutputs.
	Flush()
	// CollectResults blocks until the named transaction's results are
	// available and returns them keyed by output index. A missing index
	// means no registered IVK decrypted that output.
	CollectResults(blockHash, txid wire.Hash) map[int]*DecryptedOutput
}

// job is one unit of work dispatched to a worker goroutine.
type job struct {
	key     batchKey
	ivks    []PreparedIVK
	outputs []CompactOutput
}

// WorkerPoolRunner is the in-process BatchRunner implementation: a fixed
// pool of goroutines draining a bounded job channel, writing results into a
// shared sync.Map. Worker threads never hold a lock across a decryption call;
// only the final map store is synchronized.
type WorkerPoolRunner struct {
	decryptor NoteDecryptor

	jobs    chan job
	wg      sync.WaitGroup // outstanding jobs not yet drained by a worker
	results sync.Map       // batchKey -> map[int]*DecryptedOutput

	once    sync.Once
	workers int
}

// NewWorkerPoolRunner starts numWorkers goroutines pulling from a queue of
// depth queueDepth. AddOutputs will block once the queue is full, providing
// natural backpressure against a caller that enqueues faster than the
// workers can decrypt.
func NewWorkerPoolRunner(decryptor NoteDecryptor, numWorkers, queueDepth int) *WorkerPoolRunner {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}

	r := &WorkerPoolRunner{
		decryptor: decryptor,
		jobs:      make(chan job, queueDepth),
		workers:   numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		go r.worker()
	}

	return r
}

func (r *WorkerPoolRunner) worker() {
	for j := range r.jobs {
		decrypted := r.decryptor.TryDecrypt(j.ivks, j.outputs)
		resultMap := make(map[int]*DecryptedOutput, len(decrypted))
		for i, d := range decrypted {
			if d != nil {
				resultMap[i] = d
			}
		}
		r.results.Store(j.key, resultMap)
		r.wg.Done()
	}
}

func (r *WorkerPoolRunner) AddOutputs(blockHash, txid wire.Hash, ivks []PreparedIVK, outputs []CompactOutput) {
	r.wg.Add(1)
	r.jobs <- job{key: batchKey{BlockHash: blockHash, Txid: txid}, ivks: ivks, outputs: outputs}
}

// Flush blocks until every job enqueued so far has been picked up and
// completed by a worker. It does not close the job channel, so the runner
// may be reused for subsequent blocks.
func (r *WorkerPoolRunner) Flush() {
	r.wg.Wait()
}

func (r *WorkerPoolRunner) CollectResults(blockHash, txid wire.Hash) map[int]*DecryptedOutput {
	key := batchKey{BlockHash: blockHash, Txid: txid}
	v, ok := r.results.LoadAndDelete(key)
	if !ok {
		// Results not stored yet: wait for every queued job to finish.
		r.wg.Wait()
		v, ok = r.results.LoadAndDelete(key)
	}
	if !ok {
		// No job was ever queued for this transaction, or its results were
		// already collected.
		panic("scan: no batch results available for transaction")
	}
	return v.(map[int]*DecryptedOutput)
}

// Close stops accepting new work and shuts down the worker pool. Safe to
// call once, after the runner is no longer needed.
func (r *WorkerPoolRunner) Close() {
	r.once.Do(func() {
		close(r.jobs)
	})
}
