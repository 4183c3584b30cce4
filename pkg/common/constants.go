package common

import "time"

const (
	DeliveryTimeout = 30 * time.Second
	ShutdownTimeout = 15 * time.Second

	StartCommand    = "/start"
	DeleteMeCommand = "/delete_me"
	ReplyCommand    = "/a"
)

// Texts shown to senders.
const (
	SentAck           = "Sent!"
	AlbumSentAck      = "Your album has been sent successfully!"
	SuspensionStarted = "You have been temporarily blocked for spam."
	StillSuspended    = "You are temporarily blocked for spam. Try again later."
	Forgotten         = "You have been removed. The admin can no longer message you."
	NotRegistered     = "You are not registered yet or have already been removed."
)

// Texts shown to the operator.
const (
	ReplyUsage        = "Usage: /a <ID> <message>"
	ReplyHandleNotInt = "ID must be a number."
	ReplyNotFound     = "No user with this ID was found."
	DeliveryFailed    = "Delivery failed: %s"

	ForwardedText    = "%s: %s"
	ForwardedVoice   = "%s sent a voice message."
	ForwardedCircle  = "%s sent a video note."
	ForwardedSticker = "%s sent a sticker."
	AlbumSummary     = "%s sent an album."
)
