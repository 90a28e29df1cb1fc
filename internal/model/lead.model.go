package model

import (
	"errors"
	"strings"
)

// Lead field names as they appear on the wire. Filter criteria and sort
// keys use these names.
const (
	FieldID             = "id"
	FieldLeadName       = "lead_name"
	FieldLeadPhone      = "lead_phone"
	FieldTgUsername     = "tg_username"
	FieldBomText        = "bom_text"
	FieldBomDate        = "bom_date"
	FieldBitText        = "bit_text"
	FieldBitDate        = "bit_date"
	FieldPtText         = "pt_text"
	FieldPtDate         = "pt_date"
	FieldWgText         = "wg_text"
	FieldWgDate         = "wg_date"
	FieldNeedsAttention = "needs_attention"
	FieldOptedOut       = "opted_out"
	FieldFuBomSent      = "fu_bom_sent"
	FieldFuBomConfirmed = "fu_bom_confirmed"
	FieldFu2BomSent     = "fu2_bom_sent"
	FieldFuBitSent      = "fu_bit_sent"
	FieldFu2BitSent     = "fu2_bit_sent"
	FieldCreatedAt      = "created_at"
)

// Lead is one prospective customer. Stage texts and dates are independent:
// either may be set without the other, and nil means absent.
type Lead struct {
	ID             int64   `json:"id"`
	LeadName       string  `json:"lead_name"`
	LeadPhone      string  `json:"lead_phone"`
	TgUsername     *string `json:"tg_username,omitempty"`
	BomText        *string `json:"bom_text"`
	BomDate        *string `json:"bom_date"`
	BitText        *string `json:"bit_text"`
	BitDate        *string `json:"bit_date"`
	PtText         *string `json:"pt_text"`
	PtDate         *string `json:"pt_date"`
	WgText         *string `json:"wg_text"`
	WgDate         *string `json:"wg_date"`
	NeedsAttention bool    `json:"needs_attention"`
	OptedOut       bool    `json:"opted_out"`
	FuBomSent      bool    `json:"fu_bom_sent"`
	FuBomConfirmed bool    `json:"fu_bom_confirmed"`
	Fu2BomSent     bool    `json:"fu2_bom_sent"`
	FuBitSent      bool    `json:"fu_bit_sent"`
	Fu2BitSent     bool    `json:"fu2_bit_sent"`
	CreatedAt      string  `json:"created_at"`
}

// NormalizePhone fills an empty phone from the legacy messaging username.
func (l *Lead) NormalizePhone() {
	if l.LeadPhone == "" && l.TgUsername != nil {
		l.LeadPhone = *l.TgUsername
	}
}

// Value returns the field named by its wire name. Nil pointers come back as
// an untyped nil. ok is false for names a lead does not have.
func (l *Lead) Value(field string) (v any, ok bool) {
	switch field {
	case FieldID:
		return l.ID, true
	case FieldLeadName:
		return l.LeadName, true
	case FieldLeadPhone:
		return l.LeadPhone, true
	case FieldTgUsername:
		return deref(l.TgUsername), true
	case FieldBomText:
		return deref(l.BomText), true
	case FieldBomDate:
		return deref(l.BomDate), true
	case FieldBitText:
		return deref(l.BitText), true
	case FieldBitDate:
		return deref(l.BitDate), true
	case FieldPtText:
		return deref(l.PtText), true
	case FieldPtDate:
		return deref(l.PtDate), true
	case FieldWgText:
		return deref(l.WgText), true
	case FieldWgDate:
		return deref(l.WgDate), true
	case FieldNeedsAttention:
		return l.NeedsAttention, true
	case FieldOptedOut:
		return l.OptedOut, true
	case FieldFuBomSent:
		return l.FuBomSent, true
	case FieldFuBomConfirmed:
		return l.FuBomConfirmed, true
	case FieldFu2BomSent:
		return l.Fu2BomSent, true
	case FieldFuBitSent:
		return l.FuBitSent, true
	case FieldFu2BitSent:
		return l.Fu2BitSent, true
	case FieldCreatedAt:
		return l.CreatedAt, true
	}
	return nil, false
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// LeadInput is the create payload. The server assigns id and created_at.
type LeadInput struct {
	LeadName       string  `json:"lead_name"`
	LeadPhone      string  `json:"lead_phone"`
	TgUsername     *string `json:"tg_username,omitempty"`
	BomText        *string `json:"bom_text"`
	BomDate        *string `json:"bom_date"`
	BitText        *string `json:"bit_text"`
	BitDate        *string `json:"bit_date"`
	PtText         *string `json:"pt_text"`
	PtDate         *string `json:"pt_date"`
	WgText         *string `json:"wg_text"`
	WgDate         *string `json:"wg_date"`
	NeedsAttention bool    `json:"needs_attention"`
	OptedOut       bool    `json:"opted_out"`
	FuBomSent      bool    `json:"fu_bom_sent"`
	FuBomConfirmed bool    `json:"fu_bom_confirmed"`
	Fu2BomSent     bool    `json:"fu2_bom_sent"`
	FuBitSent      bool    `json:"fu_bit_sent"`
	Fu2BitSent     bool    `json:"fu2_bit_sent"`
}

func (in LeadInput) Validate() error {
	if strings.TrimSpace(in.LeadName) == "" {
		return errors.New("lead_name is required")
	}
	if strings.TrimSpace(in.LeadPhone) == "" && (in.TgUsername == nil || *in.TgUsername == "") {
		return errors.New("lead_phone is required")
	}
	return nil
}

// LeadUpdate is a partial update keyed by wire name. Only present keys are sent.
type LeadUpdate map[string]any

// Validate rejects keys a lead does not have and keys the server owns.
func (u LeadUpdate) Validate() error {
	var probe Lead
	for k := range u {
		if k == FieldID || k == FieldCreatedAt {
			return errors.New(k + " cannot be updated")
		}
		if _, ok := probe.Value(k); !ok {
			return errors.New("unknown lead field " + k)
		}
	}
	return nil
}

// LeadFields lists every wire name in declaration order.
func LeadFields() []string {
	return []string{
		FieldID, FieldLeadName, FieldLeadPhone, FieldTgUsername,
		FieldBomText, FieldBomDate, FieldBitText, FieldBitDate,
		FieldPtText, FieldPtDate, FieldWgText, FieldWgDate,
		FieldNeedsAttention, FieldOptedOut,
		FieldFuBomSent, FieldFuBomConfirmed, FieldFu2BomSent, FieldFuBitSent, FieldFu2BitSent,
		FieldCreatedAt,
	}
}
