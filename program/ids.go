// Package program holds the addresses, account layouts and instruction
// builders of the on-chain mining program.  Everything else in the miner
// treats instructions as opaque values produced here.
package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/regolith-labs/ore-cli-sub000/constdef"
)

var (
	// ProgramID is the mining program.
	ProgramID = solana.MustPublicKeyFromBase58("oreV2ZymfyeXgNgBdqMkumTqqAprVqgBWQfoYkrtKWQ")

	// NoopProgramID carries the proof authentication instruction.
	NoopProgramID = solana.MustPublicKeyFromBase58("noop8ytexvkpCuqbf6FB89BSuNemHtPRqaNC31GWivW")

	// MintAddress is the token mint.
	MintAddress = solana.MustPublicKeyFromBase58("oreoU2P8bN6jkk3jbaiVxYnG1dCXcYxwhwyK9jSybcp")
)

const (
	proofSeed    = "proof"
	busSeed      = "bus"
	configSeed   = "config"
	treasurySeed = "treasury"
)

func mustPDA(seeds [][]byte, programID solana.PublicKey) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		panic(err)
	}
	return addr
}

// ProofAddress returns the proof account of authority.
func ProofAddress(authority solana.PublicKey) solana.PublicKey {
	return mustPDA([][]byte{[]byte(proofSeed), authority.Bytes()}, ProgramID)
}

// ConfigAddress returns the global config account.
func ConfigAddress() solana.PublicKey {
	return mustPDA([][]byte{[]byte(configSeed)}, ProgramID)
}

// TreasuryAddress returns the treasury account.
func TreasuryAddress() solana.PublicKey {
	return mustPDA([][]byte{[]byte(treasurySeed)}, ProgramID)
}

// TreasuryTokensAddress returns the token account of the treasury.
func TreasuryTokensAddress() solana.PublicKey {
	addr, _, err := solana.FindAssociatedTokenAddress(TreasuryAddress(), MintAddress)
	if err != nil {
		panic(err)
	}
	return addr
}

// BusAddresses returns the reward bus accounts in id order.
func BusAddresses() []solana.PublicKey {
	res := make([]solana.PublicKey, constdef.BusCount)
	for i := range res {
		res[i] = mustPDA([][]byte{[]byte(busSeed), {byte(i)}}, ProgramID)
	}
	return res
}
