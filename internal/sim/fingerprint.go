package sim

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/duelist/internal/core/pilot"
)

// Fingerprint hashes a command stream. Two runs of the same duel with the
// same tuning produce the same sum; NaN payloads are hashed bit for bit.
type Fingerprint struct {
	digest *xxhash.Digest
	buf    [8 * 4]byte
}

func NewFingerprint() *Fingerprint {
	return &Fingerprint{digest: xxhash.New()}
}

func (f *Fingerprint) Add(cmd pilot.Command) {
	binary.LittleEndian.PutUint64(f.buf[0:], math.Float64bits(cmd.Acceleration.X))
	binary.LittleEndian.PutUint64(f.buf[8:], math.Float64bits(cmd.Acceleration.Y))
	binary.LittleEndian.PutUint64(f.buf[16:], math.Float64bits(cmd.Torque))

	flags := uint64(cmd.Boost)
	if cmd.Fire {
		flags |= 1 << 8
	}
	flags |= uint64(cmd.Weapon) << 16
	binary.LittleEndian.PutUint64(f.buf[24:], flags)

	_, _ = f.digest.Write(f.buf[:])
}

func (f *Fingerprint) Sum64() uint64 { return f.digest.Sum64() }
