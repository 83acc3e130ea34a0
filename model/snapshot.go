package model

import "time"

// Aggregate holds the account-wide breakdowns, already ranked.
type Aggregate struct {
	Countries []CountryStat `json:"countries"`
	Cities    []CityStat    `json:"cities"`
}

// SnapshotMeta identifies one pipeline run.
type SnapshotMeta struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Window      string    `json:"window,omitempty"`
}

// Snapshot is the persisted result of one pipeline run. It is never modified
// after assembly; a newer run replaces it whole.
type Snapshot struct {
	User          *User         `json:"user,omitempty"`
	Aggregate     Aggregate     `json:"aggregate"`
	Tracks        []TrackGeo    `json:"tracks"`
	CountryTracks CountryIndex  `json:"country_tracks"`
	Meta          *SnapshotMeta `json:"meta,omitempty"`
}

// EmptySnapshot is served when nothing has been collected yet.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Aggregate: Aggregate{
			Countries: []CountryStat{},
			Cities:    []CityStat{},
		},
		Tracks:        []TrackGeo{},
		CountryTracks: CountryIndex{},
	}
}

// IsEmpty reports whether the snapshot carries no collected data at all.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (s.User == nil && len(s.Tracks) == 0 &&
		len(s.Aggregate.Countries) == 0 && len(s.Aggregate.Cities) == 0 &&
		len(s.CountryTracks) == 0)
}

// Normalize replaces nil collections left by decoding with empty ones.
// Call it before publishing a freshly loaded snapshot.
func (s *Snapshot) Normalize() *Snapshot {
	if s == nil {
		return EmptySnapshot()
	}
	if s.Aggregate.Countries == nil {
		s.Aggregate.Countries = []CountryStat{}
	}
	if s.Aggregate.Cities == nil {
		s.Aggregate.Cities = []CityStat{}
	}
	if s.Tracks == nil {
		s.Tracks = []TrackGeo{}
	}
	for i := range s.Tracks {
		if s.Tracks[i].Countries == nil {
			s.Tracks[i].Countries = []CountryStat{}
		}
		if s.Tracks[i].Cities == nil {
			s.Tracks[i].Cities = []CityStat{}
		}
	}
	if s.CountryTracks == nil {
		s.CountryTracks = CountryIndex{}
	}
	return s
}

// SnapshotID returns the run id, or "" for snapshots written without meta.
func (s *Snapshot) SnapshotID() string {
	if s == nil || s.Meta == nil {
		return ""
	}
	return s.Meta.ID
}
