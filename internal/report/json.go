package report

// The types below are the JSON wire format. Field names and order are a
// compatibility surface; change them only together with a format version.

// EventJSON is a serialized LogEvent.
type EventJSON struct {
	LineNumber int    `json:"lineNumber"`
	Event      string `json:"event"`
}

// ClusterJSON is a serialized cluster.
type ClusterJSON struct {
	ID         int         `json:"id"`
	Samples    []EventJSON `json:"samples"`
	TotalCount int         `json:"totalCount"`
}

// NoiseJSON is the serialized noise bucket.
type NoiseJSON struct {
	Samples    []EventJSON `json:"samples"`
	TotalCount int         `json:"totalCount"`
}

// ClusteringJSON is the serialized Report.
type ClusteringJSON struct {
	Clusters     []ClusterJSON `json:"clusters"`
	NoisySamples NoiseJSON     `json:"noisySamples"`
}

// JSON converts r to its wire representation. Empty lists are non-nil so
// they encode as [] rather than null.
func (r *Report) JSON() ClusteringJSON {
	out := ClusteringJSON{
		Clusters: make([]ClusterJSON, 0, len(r.Clusters)),
		NoisySamples: NoiseJSON{
			Samples:    eventsJSON(r.Noise.Samples),
			TotalCount: r.Noise.TotalCount,
		},
	}
	for _, c := range r.Clusters {
		out.Clusters = append(out.Clusters, ClusterJSON{
			ID:         c.ID,
			Samples:    eventsJSON(c.Samples),
			TotalCount: c.TotalCount,
		})
	}
	return out
}

func eventsJSON(events []LogEvent) []EventJSON {
	out := make([]EventJSON, 0, len(events))
	for _, ev := range events {
		out = append(out, EventJSON{LineNumber: ev.LineNumber, Event: ev.Text})
	}
	return out
}
