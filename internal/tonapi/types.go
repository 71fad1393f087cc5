package tonapi

// MasterchainHead is the response of /blockchain/masterchain-head
type MasterchainHead struct {
	Seqno     uint32 `json:"seqno"`
	Workchain int32  `json:"workchain"`
	RootHash  string `json:"root_hash"`
}

// BlockchainAccount is the response of /blockchain/accounts/{id}
type BlockchainAccount struct {
	Address           string `json:"address"` // raw format
	Balance           int64  `json:"balance"`
	LastTransactionLt int64  `json:"last_transaction_lt"`
	Status            string `json:"status"`
}

// MethodExecutionResult is the response of /blockchain/accounts/{id}/methods/{name}
type MethodExecutionResult struct {
	Success  bool             `json:"success"`
	ExitCode int              `json:"exit_code"`
	Stack    []TvmStackRecord `json:"stack"`
}

// TvmStackRecord is one get-method stack entry; cells and slices are hex BoC
type TvmStackRecord struct {
	Type  string `json:"type"`
	Num   string `json:"num,omitempty"`
	Cell  string `json:"cell,omitempty"`
	Slice string `json:"slice,omitempty"`
}
