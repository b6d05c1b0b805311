package protocol

import (
	"fmt"
	"sort"
)

// ChainScore is the system score present on every network.
const ChainScore = "cx0000000000000000000000000000000000000000"

// Contract names.
const (
	BalancedDAOFund     = "balanced_dao_fund"
	BalancedDex         = "balanced_dex"
	BalancedDividends   = "balanced_dividends"
	BalancedGovernance  = "balanced_governance"
	BalancedLoans       = "balanced_loans"
	BalancedRebalance   = "balanced_rebalance"
	BalancedReserveFund = "balanced_reserve_fund"
	BalancedRewards     = "balanced_rewards"
	BandOracle          = "band_oracle"
	CPSContract         = "cps"
	OMMDelegation       = "omm_delegation"
	OMMLendingPool      = "omm_lending_pool"
)

// Contracts maps a contract name to its address per network.
var Contracts = map[string]map[string]string{
	BalancedDAOFund:     {"mainnet": "cx835b300dcfe01f0bdb794e134a0c5628384f4367"},
	BalancedDex:         {"mainnet": "cxa0af3165c08318e988cb30993b3048335b94af6c"},
	BalancedDividends:   {"mainnet": "cx203d9cd2a669be67177e997b8948ce2c35caffae"},
	BalancedGovernance:  {"mainnet": "cx44250a12074799e26fdeee75648ae47e2cc84219"},
	BalancedLoans:       {"mainnet": "cx66d4d90f5f113eba575bf793570135f9b10cece1"},
	BalancedRebalance:   {"mainnet": "cx40d59439571299bca40362db2a7d8cae5b0b30b0"},
	BalancedReserveFund: {"mainnet": "cxf58b9a1898998a31be7f1d99276204a3333ac9b3"},
	BalancedRewards:     {"mainnet": "cx10d59e8103ab44635190bd4139dbfd682fa2d07e"},
	BandOracle:          {"mainnet": "cx087b4164a87fdfb7b714f3bafe9dfb050fd6b132"},
	CPSContract:         {"mainnet": "cx9f4ab72f854d3ccdc59aa6f2c3e2215dd62e879f"},
	OMMDelegation:       {"mainnet": "cx841f29ec6ce98b527d49a275e87d427627f1afe5"},
	OMMLendingPool:      {"mainnet": "cxcb455f26a2c01c686fa7f30e1e3661642dd53c0d"},
}

// Contract returns the address of a named contract on network.
func Contract(name, network string) (string, error) {
	byNet, ok := Contracts[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}
	addr, ok := byNet[network]
	if !ok {
		return "", fmt.Errorf("%w: %s is not deployed on %s", ErrUnknownContract, name, network)
	}
	return addr, nil
}

// ContractNames lists the known contract names, sorted.
func ContractNames() []string {
	names := make([]string, 0, len(Contracts))
	for n := range Contracts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func mustContract(name string) string {
	addr, err := Contract(name, "mainnet")
	if err != nil {
		panic(err)
	}
	return addr
}
