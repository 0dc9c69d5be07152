// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package brain

import (
	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/models"
)

// Engine evaluates rules in registration order.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine running rules in the given order.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// DefaultRules returns the standard ladder using offer for the popup.
func DefaultRules(offer Offer) []Rule {
	return []Rule{
		AddToCartNoBrowseRule{},
		RepeatCheckoutOfferRule{Offer: offer},
		FirstCheckoutReassuranceRule{},
	}
}

// NewDefaultEngine builds the standard ladder with the offer copy from cfg.
// Empty offer fields fall back to DefaultOffer.
func NewDefaultEngine(cfg *config.DecisionConfig) *Engine {
	offer := DefaultOffer()
	if cfg != nil {
		if cfg.OfferCode != "" {
			offer.Code = cfg.OfferCode
		}
		if cfg.OfferDiscount != "" {
			offer.Discount = cfg.OfferDiscount
		}
		if cfg.OfferMessage != "" {
			offer.Message = cfg.OfferMessage
		}
	}
	return NewEngine(DefaultRules(offer)...)
}

// Decide returns the first action produced by a matching rule, or nil.
func (e *Engine) Decide(event *models.Event, window models.ContextWindow) *models.Action {
	action, _ := e.DecideWithRule(event, window)
	return action
}

// DecideWithRule is Decide that also names the rule that fired.
func (e *Engine) DecideWithRule(event *models.Event, window models.ContextWindow) (*models.Action, string) {
	if event == nil {
		return nil, ""
	}
	for _, rule := range e.rules {
		if !rule.MatchesType(event.EventType) {
			continue
		}
		if action := rule.Evaluate(event, window); action != nil {
			return action, rule.Name()
		}
	}
	return nil, ""
}

// Rules returns the registered rule names in order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}
