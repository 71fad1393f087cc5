package action

// UserActions are offered to every operator.
func UserActions() []Action {
	return []Action{Stake(), Info()}
}

// AdminActions are offered only when the operator is the recorded admin.
func AdminActions() []Action {
	return []Action{
		Mint(),
		ChangeAdmin(),
		ChangeContent(),
		ChangeState(),
		Withdraw(),
		ChangePrice(),
		ChangeWithdrawAddress(),
		ChangeMinWithdraw(),
		SetUpstreamWallet(),
	}
}
