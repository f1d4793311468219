package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header names the embed script sends with every request. The visitor id
// is a long-lived anonymous uuid from local storage; the session id is
// minted per page load.
const (
	HeaderVisitorID = "X-Visitor-ID"
	HeaderSessionID = "X-Session-ID"
)

// VisitorID extracts the visitor id from the request headers. Visitors
// are anonymous and optional; a missing or malformed header yields
// uuid.Nil, which downstream services treat as "no personalization".
func VisitorID(c *fiber.Ctx) uuid.UUID {
	raw := c.Get(HeaderVisitorID)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	c.Locals("visitor_id", id)
	return id
}

// SessionID extracts the session id from the request headers, minting a
// fresh one when the embed didn't send one so session-scoped storage
// always has a key.
func SessionID(c *fiber.Ctx) uuid.UUID {
	raw := c.Get(HeaderSessionID)
	if raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
	}
	return uuid.New()
}
