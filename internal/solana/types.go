package solana

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// SystemProgramID owns every plain wallet account.
const SystemProgramID = "11111111111111111111111111111111"

// Balance is the result of getBalance.
type Balance struct {
	Slot     int64
	Lamports uint64
}

// SOL converts the balance to SOL for display.
func (b Balance) SOL() float64 {
	return float64(b.Lamports) / LamportsPerSOL
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// Commitment levels accepted by the cluster.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)
