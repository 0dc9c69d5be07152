// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package brain

import (
	"github.com/tomtom215/akira/internal/models"
)

// Rule is one step of the decision ladder.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string

	// MatchesType reports whether the rule looks at events of this type.
	MatchesType(eventType string) bool

	// Evaluate returns an action, or nil to pass to the next rule.
	Evaluate(event *models.Event, window models.ContextWindow) *models.Action
}

// Rule copy.
const (
	ChatPromptMessage     = "Great choice! Is there anything else I can help you find before you check out?"
	ReassuranceMessage    = "We offer secure payment and fast, free returns."
	repeatCheckoutMinimum = 2
)

// Offer is the popup shown to returning checkouts.
type Offer struct {
	Code     string
	Discount string
	Message  string
}

// DefaultOffer is the SAVE5 cart-recovery offer.
func DefaultOffer() Offer {
	return Offer{
		Code:     "SAVE5",
		Discount: "5% OFF ENTIRE ORDER",
		Message:  "Welcome back! Use code SAVE5 for 5% off this order—we saved your cart.",
	}
}

// AddToCartNoBrowseRule prompts a chat when a shopper adds to cart without
// having viewed any page in the window.
type AddToCartNoBrowseRule struct{}

func (AddToCartNoBrowseRule) Name() string { return "add_to_cart_no_browse" }

func (AddToCartNoBrowseRule) MatchesType(eventType string) bool {
	return eventType == models.EventTypeAddToCart
}

func (AddToCartNoBrowseRule) Evaluate(_ *models.Event, window models.ContextWindow) *models.Action {
	if window.Count(models.EventTypePageView) > 0 {
		return nil
	}
	return &models.Action{
		Type: models.ActionTriggerChatPrompt,
		Data: models.ActionData{Message: ChatPromptMessage},
	}
}

// RepeatCheckoutOfferRule offers a discount to a shopper who has started
// checkout at least twice in the window without purchasing.
type RepeatCheckoutOfferRule struct {
	Offer Offer
}

func (RepeatCheckoutOfferRule) Name() string { return "repeat_checkout_offer" }

func (RepeatCheckoutOfferRule) MatchesType(eventType string) bool {
	return eventType == models.EventTypeCheckoutStart
}

func (r RepeatCheckoutOfferRule) Evaluate(_ *models.Event, window models.ContextWindow) *models.Action {
	if window.Count(models.EventTypeCheckoutStart) < repeatCheckoutMinimum || window.Count(models.EventTypePurchase) > 0 {
		return nil
	}
	return &models.Action{
		Type: models.ActionDisplayPopupOffer,
		Data: models.ActionData{
			Message:  r.Offer.Message,
			Discount: r.Offer.Discount,
			Code:     r.Offer.Code,
		},
	}
}

// FirstCheckoutReassuranceRule reassures a shopper starting checkout who has
// not purchased in the window.
type FirstCheckoutReassuranceRule struct{}

func (FirstCheckoutReassuranceRule) Name() string { return "first_checkout_reassurance" }

func (FirstCheckoutReassuranceRule) MatchesType(eventType string) bool {
	return eventType == models.EventTypeCheckoutStart
}

func (FirstCheckoutReassuranceRule) Evaluate(_ *models.Event, window models.ContextWindow) *models.Action {
	if window.Count(models.EventTypePurchase) > 0 {
		return nil
	}
	return &models.Action{
		Type: models.ActionDisplayInfoMessage,
		Data: models.ActionData{Message: ReassuranceMessage},
	}
}
