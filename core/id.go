package core

import (
	"github.com/google/uuid"

	"pkt.systems/hackterm/schema"
)

func newSessionID() schema.SessionID {
	return schema.SessionID(uuid.NewString())
}
