package config

// DefaultNetworkName is the network used by a fresh document.
const DefaultNetworkName = "mainnet"

var builtinNetworks = []NetworkDescriptor{
	{
		Name:            "mainnet",
		APIEndpoint:     "https://ctz.solidwallet.io",
		NID:             1,
		TrackerEndpoint: "https://tracker.icon.community",
	},
	{
		Name:            "lisbon",
		APIEndpoint:     "https://lisbon.net.solidwallet.io",
		NID:             2,
		TrackerEndpoint: "https://tracker.lisbon.icon.community",
	},
	{
		Name:            "berlin",
		APIEndpoint:     "https://berlin.net.solidwallet.io",
		NID:             7,
		TrackerEndpoint: "https://tracker.berlin.icon.community",
	},
	{
		Name:            "sejong",
		APIEndpoint:     "https://sejong.net.solidwallet.io",
		NID:             83,
		TrackerEndpoint: "https://tracker.sejong.icon.community",
	},
}

// BuiltinNetworks returns a copy of the built-in network table in display order.
func BuiltinNetworks() []NetworkDescriptor {
	out := make([]NetworkDescriptor, len(builtinNetworks))
	copy(out, builtinNetworks)
	return out
}

// BuiltinNetwork looks up a built-in network by its normalized name.
func BuiltinNetwork(name string) (NetworkDescriptor, bool) {
	for _, n := range builtinNetworks {
		if n.Name == name {
			return n, true
		}
	}
	return NetworkDescriptor{}, false
}

// IsBuiltinNetwork reports whether name belongs to the built-in table.
func IsBuiltinNetwork(name string) bool {
	_, ok := BuiltinNetwork(NormalizeName(name))
	return ok
}
