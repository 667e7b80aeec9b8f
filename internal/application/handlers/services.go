package handlers

import (
	"github.com/ersonp/scenecredits/internal/domain/ports"
	"github.com/ersonp/scenecredits/internal/domain/services"
	"github.com/ersonp/scenecredits/internal/observability"
)

// ResolutionOptions carries the configured resolution behavior into handlers.
type ResolutionOptions struct {
	StalePolicy services.StalePolicy
	IDLookup    bool
	// Limit caps suggestion lists. 0 means no limit.
	Limit int
}

// serviceSet wires the domain services to one store. Writes inside a
// transaction need a set built on the transaction-bound store.
type serviceSet struct {
	releasers *services.ReleaserService
	index     *services.VariantIndex
	resolver  *services.Resolver
	parser    *services.BylineParser
	committer *services.SelectionCommitter
}

func newServiceSet(relationalDB ports.RelationalDB, metrics *observability.Metrics) *serviceSet {
	index := services.NewVariantIndex(relationalDB, services.NewCandidateScorer(relationalDB), metrics)
	resolver := services.NewResolver(relationalDB, index, metrics)
	return &serviceSet{
		releasers: services.NewReleaserService(relationalDB),
		index:     index,
		resolver:  resolver,
		parser:    services.NewBylineParser(index, resolver),
		committer: services.NewSelectionCommitter(relationalDB, metrics),
	}
}
