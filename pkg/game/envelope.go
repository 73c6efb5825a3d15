package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved error codes shared by every endpoint.
const (
	CodeSuccess        int64 = 0
	CodeSessionExpired int64 = -73
)

// Message ids used by SnakeKeeper.
const (
	MsgLogin          = 30001
	MsgViewRole       = 30002
	MsgFollowList     = 30014
	MsgLuckyDrawInfo  = 30250
	MsgLuckyDraw      = 30251
	MsgMoneyTreeInfo  = 30685
	MsgMoneyTreeShake = 30686
	MsgClothShopInfo  = 30843
	MsgClothShopBuy   = 30844
	MsgSignInInfo     = 31010
	MsgSignIn         = 31011
	MsgSignInWeekend  = 31012
)

// Envelope is one request: a message id plus its payload.
type Envelope struct {
	MsgID   int
	Payload *Payload
}

// NewEnvelope creates an envelope for msgID.
func NewEnvelope(msgID int, payload *Payload) Envelope {
	if payload == nil {
		payload = NewPayload()
	}
	return Envelope{MsgID: msgID, Payload: payload}
}

// Encode builds the form body "msg_id=<id>&msg=<quoted json>".
func (e Envelope) Encode() (string, error) {
	msg, err := e.Payload.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal msg %d: %w", e.MsgID, err)
	}
	return "msg_id=" + strconv.Itoa(e.MsgID) + "&msg=" + Quote(string(msg)), nil
}

const upperHex = "0123456789ABCDEF"

// Quote percent-encodes s byte by byte, keeping only unreserved characters
// and '/'. Space becomes %20, never '+'.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~', c == '/':
		return true
	}
	return false
}
