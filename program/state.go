package program

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Every program account starts with an 8 byte discriminator.
const discriminatorSize = 8

// Proof tracks the mining state of one authority.
type Proof struct {
	Authority    solana.PublicKey
	Balance      uint64
	Challenge    [32]byte
	LastHash     [32]byte
	LastHashAt   int64
	LastStakeAt  int64
	Miner        solana.PublicKey
	TotalHashes  uint64
	TotalRewards uint64
}

// Config holds the global program parameters.
type Config struct {
	BaseRewardRate uint64
	LastResetAt    int64
	MinDifficulty  uint64
	TopBalance     uint64
}

// Bus is a reward pool account.
type Bus struct {
	ID                 uint64
	Rewards            uint64
	TheoreticalRewards uint64
	TopBalance         uint64
}

// Clock is the clock sysvar.
type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

const (
	proofSize  = discriminatorSize + 32 + 8 + 32 + 32 + 8 + 8 + 32 + 8 + 8
	configSize = discriminatorSize + 8*4
	busSize    = discriminatorSize + 8*4
	clockSize  = 8 * 5
)

type reader struct {
	b   []byte
	off int
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.b[r.off:])
	r.off += 8
	return v
}

func (r *reader) i64() int64 {
	return int64(r.u64())
}

func (r *reader) bytes32() [32]byte {
	var v [32]byte
	copy(v[:], r.b[r.off:r.off+32])
	r.off += 32
	return v
}

func checkSize(what string, data []byte, size int) error {
	if len(data) < size {
		return fmt.Errorf("%s account data too short: %d < %d", what, len(data), size)
	}
	return nil
}

// DecodeProof parses proof account data.
func DecodeProof(data []byte) (*Proof, error) {
	if err := checkSize("proof", data, proofSize); err != nil {
		return nil, err
	}
	r := &reader{b: data, off: discriminatorSize}
	return &Proof{
		Authority:    solana.PublicKeyFromBytes(sliceOf(r.bytes32())),
		Balance:      r.u64(),
		Challenge:    r.bytes32(),
		LastHash:     r.bytes32(),
		LastHashAt:   r.i64(),
		LastStakeAt:  r.i64(),
		Miner:        solana.PublicKeyFromBytes(sliceOf(r.bytes32())),
		TotalHashes:  r.u64(),
		TotalRewards: r.u64(),
	}, nil
}

// DecodeConfig parses config account data.
func DecodeConfig(data []byte) (*Config, error) {
	if err := checkSize("config", data, configSize); err != nil {
		return nil, err
	}
	r := &reader{b: data, off: discriminatorSize}
	return &Config{
		BaseRewardRate: r.u64(),
		LastResetAt:    r.i64(),
		MinDifficulty:  r.u64(),
		TopBalance:     r.u64(),
	}, nil
}

// DecodeBus parses bus account data.
func DecodeBus(data []byte) (*Bus, error) {
	if err := checkSize("bus", data, busSize); err != nil {
		return nil, err
	}
	r := &reader{b: data, off: discriminatorSize}
	return &Bus{
		ID:                 r.u64(),
		Rewards:            r.u64(),
		TheoreticalRewards: r.u64(),
		TopBalance:         r.u64(),
	}, nil
}

// DecodeClock parses the clock sysvar.
func DecodeClock(data []byte) (*Clock, error) {
	if err := checkSize("clock", data, clockSize); err != nil {
		return nil, err
	}
	r := &reader{b: data}
	return &Clock{
		Slot:                r.u64(),
		EpochStartTimestamp: r.i64(),
		Epoch:               r.u64(),
		LeaderScheduleEpoch: r.u64(),
		UnixTimestamp:       r.i64(),
	}, nil
}

func sliceOf(b [32]byte) []byte {
	return b[:]
}
