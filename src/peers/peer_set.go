package peers

import "sort"

// PeerSet is an immutable set of peers indexed by moniker. The trusted
// participant allow-list is a PeerSet; directory responses are filtered
// through it before any quorum or aggregation decision.
type PeerSet struct {
	Peers     []*Peer
	ByMoniker map[string]*Peer
}

// NewPeerSet creates a PeerSet from a list of peers. Peers are sorted by
// moniker and duplicates collapse to the last occurrence.
func NewPeerSet(peers []*Peer) *PeerSet {
	byMoniker := make(map[string]*Peer)
	for _, peer := range peers {
		byMoniker[peer.Moniker] = peer
	}

	sorted := make([]*Peer, 0, len(byMoniker))
	for _, peer := range byMoniker {
		sorted = append(sorted, peer)
	}
	sort.Sort(ByMoniker(sorted))

	return &PeerSet{
		Peers:     sorted,
		ByMoniker: byMoniker,
	}
}

// Contains reports whether a moniker belongs to the set.
func (ps *PeerSet) Contains(moniker string) bool {
	_, ok := ps.ByMoniker[moniker]
	return ok
}

// Filter returns the subset of candidates whose monikers belong to the set.
// Order is preserved. This is the defense against an untrusted directory
// response.
func (ps *PeerSet) Filter(candidates []*Peer) []*Peer {
	res := make([]*Peer, 0, len(candidates))
	for _, peer := range candidates {
		if ps.Contains(peer.Moniker) {
			res = append(res, peer)
		}
	}
	return res
}

// Monikers returns the sorted monikers of the set.
func (ps *PeerSet) Monikers() []string {
	res := make([]string, 0, len(ps.Peers))
	for _, peer := range ps.Peers {
		res = append(res, peer.Moniker)
	}
	return res
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	return len(ps.ByMoniker)
}

// Majority is the liveness threshold for single-branch operations.
func (ps *PeerSet) Majority() int {
	return ps.Len()/2 + 1
}

// ByMoniker implements sort.Interface for []*Peer based on the Moniker field.
type ByMoniker []*Peer

func (a ByMoniker) Len() int      { return len(a) }
func (a ByMoniker) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a ByMoniker) Less(i, j int) bool {
	return a[i].Moniker < a[j].Moniker
}
