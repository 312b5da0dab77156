package services

import "errors"

var (
	ErrEmptyBody            = errors.New("message body is empty")
	ErrSelfMessage          = errors.New("cannot send a message to yourself")
	ErrRecipientNotFound    = errors.New("recipient does not exist")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("requester is not a participant of this conversation")
	ErrSessionNotFound      = errors.New("chat session not found")
)
