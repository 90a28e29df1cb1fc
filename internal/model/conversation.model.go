package model

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// ChatMessage is one entry of a lead's conversation. A pending outgoing
// message has a negative MessageID and no Timestamp until the server
// confirms it.
type ChatMessage struct {
	LeadID      int64     `json:"lead_id"`
	MessageID   int64     `json:"message_id"`
	MediaID     *string   `json:"media_id"`
	LeadName    string    `json:"lead_name"`
	LeadPhone   string    `json:"lead_phone"`
	MessageText string    `json:"message_text"`
	Direction   Direction `json:"direction"`
	Timestamp   *string   `json:"timestamp"`
}

func (m ChatMessage) Pending() bool {
	return m.MessageID < 0
}
