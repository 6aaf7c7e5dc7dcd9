package field

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// AtomicAdd adds v to *p without locking. Concurrent adds to the same cell
// never lose updates: the read-modify-write retries until the compare and
// swap lands. This is the one concurrency primitive both deposition kernels
// and the cost ledger are built on.
func AtomicAdd(p *float64, v float64) {
	up := (*uint64)(unsafe.Pointer(p))
	for {
		old := atomic.LoadUint64(up)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(up, old, next) {
			return
		}
	}
}

// AtomicAddAt adds v to Data[idx] under the AtomicAdd contract.
func (f *Field) AtomicAddAt(idx int, v float64) {
	AtomicAdd(&f.Data[idx], v)
}
