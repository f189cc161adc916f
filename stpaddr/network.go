package stpaddr

// Network identifies which Cardano network addresses are encoded for.
// The numeric value matches the low nibble of the address header byte.
type Network int

const (
	Testnet Network = 0
	Mainnet Network = 1
)

// StakePrefix returns the bech32 human-readable prefix for reward addresses.
func (n Network) StakePrefix() string {
	if n == Mainnet {
		return "stake"
	}
	return "stake_test"
}

// PaymentPrefix returns the bech32 human-readable prefix for payment addresses.
func (n Network) PaymentPrefix() string {
	if n == Mainnet {
		return "addr"
	}
	return "addr_test"
}

func (n Network) String() string {
	if n == Mainnet {
		return "mainnet"
	}
	return "testnet"
}

// ParseNetwork maps a configuration value to a Network, defaulting to mainnet.
func ParseNetwork(s string) Network {
	switch s {
	case "testnet", "preprod", "preview":
		return Testnet
	default:
		return Mainnet
	}
}
