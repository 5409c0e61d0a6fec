package pooljson

// RegisterCmd is the body of POST /register.
type RegisterCmd struct {
	Authority string `json:"authority"`
}

// NewRegisterCmd returns a new instance which can be used to register
// authority with the pool.
func NewRegisterCmd(authority string) *RegisterCmd {
	return &RegisterCmd{Authority: authority}
}

// Solution is the wire form of a solution: digest and little endian nonce as
// byte arrays.
type Solution struct {
	D [16]byte `json:"d"`
	N [8]byte  `json:"n"`
}

// ContributeCmd is the body of POST /contribute.
type ContributeCmd struct {
	Authority string   `json:"authority"`
	Solution  Solution `json:"solution"`
	Signature string   `json:"signature"`
}

// NewContributeCmd returns a new instance which can be used to submit a
// signed solution.
func NewContributeCmd(authority string, solution Solution, signature string) *ContributeCmd {
	return &ContributeCmd{
		Authority: authority,
		Solution:  solution,
		Signature: signature,
	}
}

// CommitCmd is the body of POST /commit: a transaction prepared by the pool
// and co-signed by the member.
type CommitCmd struct {
	Authority         string `json:"authority"`
	SignedTransaction string `json:"signed_transaction"`
	Blockhash         string `json:"blockhash"`
}

// NewCommitCmd returns a new instance which can be used to commit a balance
// update.
func NewCommitCmd(authority, signedTransaction, blockhash string) *CommitCmd {
	return &CommitCmd{
		Authority:         authority,
		SignedTransaction: signedTransaction,
		Blockhash:         blockhash,
	}
}
