package peers

// Peer is one participant branch, as listed by the directory service and by
// the peers.json allow-list. The JSON field names are part of the legacy wire
// protocol: ip carries the branch network address and npm its moniker.
type Peer struct {
	NetAddr string `json:"ip"`
	Moniker string `json:"npm"`
}

// NewPeer ...
func NewPeer(moniker, netAddr string) *Peer {
	return &Peer{
		Moniker: moniker,
		NetAddr: netAddr,
	}
}

// ExcludePeer is used to exclude a single peer from a list of peers.
func ExcludePeer(peers []*Peer, moniker string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.Moniker != moniker {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
