package program

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/regolith-labs/ore-cli-sub000/drill"
)

func TestAddresses(t *testing.T) {
	buses := BusAddresses()
	if len(buses) != 8 {
		t.Fatalf("got %d buses", len(buses))
	}
	seen := make(map[solana.PublicKey]bool)
	for _, b := range buses {
		if seen[b] {
			t.Error("duplicate bus address " + b.String())
		}
		seen[b] = true
	}

	authority := solana.NewWallet().PublicKey()
	if !ProofAddress(authority).Equals(ProofAddress(authority)) {
		t.Error("proof address is not deterministic")
	}
	if ProofAddress(authority).Equals(ProofAddress(solana.NewWallet().PublicKey())) {
		t.Error("distinct authorities share a proof")
	}
}

func TestDecodeProof(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	var challenge [32]byte
	challenge[0] = 0xaa

	buf := new(bytes.Buffer)
	buf.Write(make([]byte, discriminatorSize))
	buf.Write(authority.Bytes())
	binary.Write(buf, binary.LittleEndian, uint64(1234))
	buf.Write(challenge[:])
	buf.Write(make([]byte, 32))
	binary.Write(buf, binary.LittleEndian, int64(1700000000))
	binary.Write(buf, binary.LittleEndian, int64(1600000000))
	buf.Write(authority.Bytes())
	binary.Write(buf, binary.LittleEndian, uint64(99))
	binary.Write(buf, binary.LittleEndian, uint64(7))

	p, err := DecodeProof(buf.Bytes())
	if err != nil {
		t.Fatal(err.Error())
	}
	if !p.Authority.Equals(authority) || p.Balance != 1234 || p.Challenge != challenge ||
		p.LastHashAt != 1700000000 || p.LastStakeAt != 1600000000 ||
		p.TotalHashes != 99 || p.TotalRewards != 7 {
		t.Errorf("unexpected proof %+v", p)
	}

	if _, err := DecodeProof(buf.Bytes()[:50]); err == nil {
		t.Error("short proof data accepted")
	}
}

func TestDecodeConfigAndBus(t *testing.T) {
	data := make([]byte, discriminatorSize+32)
	binary.LittleEndian.PutUint64(data[8:], 10)
	binary.LittleEndian.PutUint64(data[16:], 1700000000)
	binary.LittleEndian.PutUint64(data[24:], 12)
	binary.LittleEndian.PutUint64(data[32:], 55)

	t.Run("test_1", func(t *testing.T) {
		c, err := DecodeConfig(data)
		if err != nil {
			t.Fatal(err.Error())
		}
		if c.BaseRewardRate != 10 || c.LastResetAt != 1700000000 || c.MinDifficulty != 12 || c.TopBalance != 55 {
			t.Errorf("unexpected config %+v", c)
		}
	})
	t.Run("test_2", func(t *testing.T) {
		b, err := DecodeBus(data)
		if err != nil {
			t.Fatal(err.Error())
		}
		if b.ID != 10 || b.Rewards != 1700000000 {
			t.Errorf("unexpected bus %+v", b)
		}
	})
	t.Run("test_3", func(t *testing.T) {
		if _, err := DecodeClock(data[:20]); err == nil {
			t.Error("short clock data accepted")
		}
		clock := make([]byte, 40)
		binary.LittleEndian.PutUint64(clock[32:], 1700000042)
		c, err := DecodeClock(clock)
		if err != nil {
			t.Fatal(err.Error())
		}
		if c.UnixTimestamp != 1700000042 {
			t.Errorf("got unix timestamp %d", c.UnixTimestamp)
		}
	})
}

func TestMineInstruction(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	bus := BusAddresses()[3]
	sol := drill.NewSolution([drill.DigestSize]byte{1, 2, 3}, 42)
	boost := solana.NewWallet().PublicKey()

	b := NewBuilder(solana.PublicKey{})
	ix := b.Mine(signer, signer, bus, sol, []solana.PublicKey{boost})
	if !ix.ProgramID().Equals(ProgramID) {
		t.Error("wrong program id")
	}
	data, err := ix.Data()
	if err != nil {
		t.Fatal(err.Error())
	}
	if data[0] != ixMine || !bytes.Equal(data[1:], sol.Bytes()) {
		t.Errorf("unexpected mine data %x", data)
	}
	accounts := ix.Accounts()
	if len(accounts) != 7 {
		t.Fatalf("got %d accounts", len(accounts))
	}
	if !accounts[0].IsSigner || !accounts[1].PublicKey.Equals(bus) || !accounts[6].PublicKey.Equals(boost) {
		t.Error("unexpected account order")
	}

	if b.Rotate(signer) != nil {
		t.Error("rotate built without a boost program")
	}
	if NewBuilder(solana.NewWallet().PublicKey()).Rotate(signer) == nil {
		t.Error("rotate missing with a boost program")
	}

	reset := b.Reset(signer)
	if got := len(reset.Accounts()); got != 1+8+5 {
		t.Errorf("reset has %d accounts", got)
	}
	auth := b.Auth(ProofAddress(signer))
	if !auth.ProgramID().Equals(NoopProgramID) {
		t.Error("auth not sent to the noop program")
	}
}
