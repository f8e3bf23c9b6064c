// SPDX-License-Identifier: AGPL-3.0-or-later

package mutate

import (
	"packline/pkg/location"
	"packline/pkg/perr"
	"packline/pkg/provisioning"
	"packline/pkg/resolvers"
)

// GetFeaturePackUpdate asks producer's channel for an update plan
// against its currently installed location.
func (m *Mutator[F]) GetFeaturePackUpdate(producer location.ProducerSpec) (provisioning.FeaturePackUpdatePlan, error) {
	cfg := m.l.Config()

	var installed location.FeaturePackLocation
	var transitive bool
	if e, ok := cfg.FindDirect(producer); ok {
		installed = e.Location
	} else if e, ok := cfg.FindTransitive(producer); ok {
		installed = e.Location
		transitive = true
	} else {
		return provisioning.FeaturePackUpdatePlan{}, perr.New(perr.UpdateNotInstalled, "not installed: "+producer.String(), producer)
	}

	ch, err := m.l.ChannelFor(installed)
	if err != nil {
		return provisioning.FeaturePackUpdatePlan{}, err
	}
	return resolvers.DefaultUpdatePlan(ch, resolvers.UpdateRequest{
		Producer:   producer,
		Installed:  installed,
		Transitive: transitive,
	})
}

// GetUpdates builds a plan of every non-empty update among producers,
// or every installed producer when producers is nil.
func (m *Mutator[F]) GetUpdates(producers []location.ProducerSpec) (provisioning.ProvisioningPlan, error) {
	if producers == nil {
		cfg := m.l.Config()
		for _, e := range cfg.Direct() {
			producers = append(producers, e.Producer())
		}
		for _, p := range cfg.SortedTransitiveProducers() {
			producers = append(producers, p)
		}
	}

	var plan provisioning.ProvisioningPlan
	for _, p := range producers {
		upd, err := m.GetFeaturePackUpdate(p)
		if err != nil {
			return provisioning.ProvisioningPlan{}, err
		}
		if !upd.IsEmpty() {
			plan.Updates = append(plan.Updates, upd)
		}
	}
	return plan, nil
}
