package analysis

import (
	"fmt"

	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

// Registry keeps a mapping from modalities to their media analyzers.
type Registry struct {
	analyzers map[domain.Modality]ports.MediaAnalyzer
}

// NewRegistry builds a registry holding the given analyzers.
func NewRegistry(analyzers ...ports.MediaAnalyzer) *Registry {
	r := &Registry{analyzers: map[domain.Modality]ports.MediaAnalyzer{}}
	for _, a := range analyzers {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an analyzer implementation.
func (r *Registry) Register(analyzer ports.MediaAnalyzer) {
	if analyzer == nil {
		return
	}
	if r.analyzers == nil {
		r.analyzers = map[domain.Modality]ports.MediaAnalyzer{}
	}
	r.analyzers[analyzer.Modality()] = analyzer
}

// Resolve returns the analyzer for a modality or an error if it is absent.
func (r *Registry) Resolve(modality domain.Modality) (ports.MediaAnalyzer, error) {
	if r != nil {
		if analyzer, ok := r.analyzers[modality]; ok {
			return analyzer, nil
		}
	}
	return nil, fmt.Errorf("no analyzer registered for %s", modality)
}
