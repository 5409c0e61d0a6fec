package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/regolith-labs/ore-cli-sub000/drill"
)

// Instruction discriminators of the mining program.
const (
	ixMine  byte = 2
	ixReset byte = 4

	// Boost program.
	ixRotate byte = 2
)

const reservationSeed = "reservation"

// InstructionBuilder produces the instructions of a mine transaction.  The
// submitter and the mining loop never look inside the results.
type InstructionBuilder interface {
	// Auth authenticates the proof account for the transaction.
	Auth(proof solana.PublicKey) solana.Instruction

	// Reset starts a new epoch.
	Reset(signer solana.PublicKey) solana.Instruction

	// Mine submits sol against bus.  boostKeys are appended as read-only
	// accounts.
	Mine(signer, authority, bus solana.PublicKey, sol drill.Solution,
		boostKeys []solana.PublicKey) solana.Instruction

	// Rotate rotates the boost reservation of signer.  It returns nil when
	// boosts are not in use.
	Rotate(signer solana.PublicKey) solana.Instruction
}

// Builder is the InstructionBuilder of the deployed program.
type Builder struct {
	// BoostProgram enables the rotate instruction when set.
	BoostProgram solana.PublicKey
}

// NewBuilder returns a builder.  A zero boostProgram disables rotation.
func NewBuilder(boostProgram solana.PublicKey) *Builder {
	return &Builder{BoostProgram: boostProgram}
}

func (b *Builder) Auth(proof solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(NoopProgramID, solana.AccountMetaSlice{}, proof.Bytes())
}

func (b *Builder) Reset(signer solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{solana.NewAccountMeta(signer, true, true)}
	for _, bus := range BusAddresses() {
		accounts = append(accounts, solana.NewAccountMeta(bus, true, false))
	}
	accounts = append(accounts,
		solana.NewAccountMeta(ConfigAddress(), true, false),
		solana.NewAccountMeta(MintAddress, true, false),
		solana.NewAccountMeta(TreasuryAddress(), true, false),
		solana.NewAccountMeta(TreasuryTokensAddress(), true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	)
	return solana.NewInstruction(ProgramID, accounts, []byte{ixReset})
}

func (b *Builder) Mine(signer, authority, bus solana.PublicKey, sol drill.Solution,
	boostKeys []solana.PublicKey) solana.Instruction {

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(signer, true, true),
		solana.NewAccountMeta(bus, true, false),
		solana.NewAccountMeta(ConfigAddress(), false, false),
		solana.NewAccountMeta(ProofAddress(authority), true, false),
		solana.NewAccountMeta(solana.SysVarInstructionsPubkey, false, false),
		solana.NewAccountMeta(solana.SysVarSlotHashesPubkey, false, false),
	}
	for _, key := range boostKeys {
		accounts = append(accounts, solana.NewAccountMeta(key, false, false))
	}
	return solana.NewInstruction(ProgramID, accounts, MineData(sol))
}

func (b *Builder) Rotate(signer solana.PublicKey) solana.Instruction {
	if b.BoostProgram.IsZero() {
		return nil
	}
	proof := ProofAddress(signer)
	reservation := mustPDA([][]byte{[]byte(reservationSeed), proof.Bytes()}, b.BoostProgram)
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(signer, true, true),
		solana.NewAccountMeta(proof, false, false),
		solana.NewAccountMeta(reservation, true, false),
		solana.NewAccountMeta(solana.SysVarSlotHashesPubkey, false, false),
	}
	return solana.NewInstruction(b.BoostProgram, accounts, []byte{ixRotate})
}

// MineData encodes the data of a mine instruction.
func MineData(sol drill.Solution) []byte {
	data := make([]byte, 0, 1+drill.SolutionSize)
	data = append(data, ixMine)
	return append(data, sol.Bytes()...)
}
