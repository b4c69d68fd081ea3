package studio

import (
	"zenstudio/internal/assetcache"
	"zenstudio/internal/library"
	"zenstudio/internal/persist"
	"zenstudio/internal/story"
)

// Summary is a point-in-time overview of the session.
type Summary struct {
	Backend          string
	Segments         int
	SegmentsByKind   map[story.Kind]int
	WithAudio        int
	Variables        int
	DanglingBranches int
	ActiveID         string
	Library          map[library.Status]int
	Assets           assetcache.Stats
	Theme            persist.Theme
	CredentialSource string
	Busy             int
}

// Summary collects counts for the status command.
func (s *Session) Summary() (Summary, error) {
	snap := s.graph.Snapshot()
	sum := Summary{
		Backend:          s.cfg.Storage.Backend,
		Segments:         len(snap.Story.Segments),
		SegmentsByKind:   make(map[story.Kind]int),
		Variables:        len(snap.Story.Variables),
		DanglingBranches: len(snap.Story.DanglingBranches()),
		ActiveID:         snap.ActiveID,
		Library:          make(map[library.Status]int),
		Theme:            s.Theme(),
		CredentialSource: s.CredentialSource(),
		Busy:             len(s.leases.Active()),
	}
	for _, seg := range snap.Story.Segments {
		sum.SegmentsByKind[seg.Kind]++
		if seg.Assets.Audio != "" && s.assets.Valid(seg.Assets.Audio) {
			sum.WithAudio++
		}
	}
	for _, f := range s.library.List() {
		sum.Library[f.Status]++
	}
	stats, err := s.assets.Stats()
	if err != nil {
		return sum, err
	}
	sum.Assets = stats
	return sum, nil
}
