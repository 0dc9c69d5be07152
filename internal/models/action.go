// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package models

// ActionType names a widget the storefront snippet knows how to render.
type ActionType string

const (
	ActionTriggerChatPrompt  ActionType = "TRIGGER_CHAT_PROMPT"
	ActionDisplayPopupOffer  ActionType = "DISPLAY_POPUP_OFFER"
	ActionDisplayInfoMessage ActionType = "DISPLAY_INFO_MESSAGE"
)

// ActionData is the copy shown to the shopper.
type ActionData struct {
	Message  string `json:"message"`
	Discount string `json:"discount,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Action is a decision engine result.
type Action struct {
	Type ActionType `json:"type"`
	Data ActionData `json:"data"`
}

// ActionMessageType is the message type of every pushed action.
const ActionMessageType = "akuraAction"

// ActionPayload is the data of a pushed action. The snippet filters on TargetUser.
type ActionPayload struct {
	TargetUser string  `json:"targetUser"`
	Action     *Action `json:"action"`
}

// TargetUserKey returns the routing key the snippet matches against its shopper.
func TargetUserKey(endUserID string) string {
	return "user_" + endUserID
}
