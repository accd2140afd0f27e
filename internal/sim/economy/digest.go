package economy

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

func (e *Engine) stateDigest() string {
	h := sha256.New()
	var tmp [8]byte
	putU := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	putI := func(v int) { putU(uint64(int64(v))) }
	putF := func(v float64) { putU(math.Float64bits(v)) }

	putU(e.st.tick)
	putF(e.st.credits)
	putI(e.st.inventory)
	putF(e.st.currentPrice)
	putI(e.st.demandRemaining)
	putI(e.st.warehouseOccupancy)

	putU(e.ledger.nextNum)
	for _, s := range e.ledger.pending {
		h.Write([]byte(s.ID))
		h.Write([]byte{byte(s.Kind)})
		putI(s.Amount)
		putU(s.ArrivalTick)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the current state digest.
func (e *Engine) Digest() string { return e.stateDigest() }
