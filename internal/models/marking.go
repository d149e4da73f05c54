package models

// Marking представляет запись о маркировке телёнка (vasanmerkintä).
// VasaNumber идентифицирует телёнка, EmoNumber его мать.
type Marking struct {
	VasaNumber string `json:"vasaNumber" validate:"required,max=20,herdid"`
	EmoNumber  string `json:"emoNumber" validate:"required,max=20,herdid"`
	Notes      string `json:"notes,omitempty" validate:"max=500"`
}

// Payload converts the marking into an entry payload.
func (m Marking) Payload() Payload {
	p := Payload{
		PayloadVasaNumber: m.VasaNumber,
		PayloadEmoNumber:  m.EmoNumber,
	}
	if m.Notes != "" {
		p[PayloadNotes] = m.Notes
	}
	return p
}
