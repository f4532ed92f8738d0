// internal/models/lead.go
package models

import "airtable-gateway/internal/common/airtable"

// Logical table names as registered in the schema registry.
const (
	LeadsTable = "leads_table"
	CallsTable = "calls_table"
)

// Field names used by the lead business operations.
const (
	LeadFieldPhoneNumber = "lead_phone_number"
	LeadFieldStatus      = "status"
)

// Lead represents a sales prospect stored in the leads table.
type Lead struct {
	Name            string   `json:"name,omitempty"`
	LeadPhoneNumber string   `json:"lead_phone_number,omitempty"`
	Alcaldia        string   `json:"alcaldia,omitempty"`
	Direccion       string   `json:"direccion,omitempty"`
	Referencias     string   `json:"referencias,omitempty"`
	CuantasPersons  *int     `json:"cuantas_persons,omitempty"`
	Status          string   `json:"status,omitempty"`
	NumLlamadas     *int     `json:"num_llamadas,omitempty"`
	Contactado      string   `json:"contactado,omitempty"`
	Monto           *float64 `json:"monto,omitempty"`
}

// ToFields converts the lead into an Airtable fields map, omitting unset
// values so updates stay partial.
func (l Lead) ToFields() map[string]interface{} {
	fields := map[string]interface{}{}
	if l.Name != "" {
		fields["name"] = l.Name
	}
	if l.LeadPhoneNumber != "" {
		fields["lead_phone_number"] = l.LeadPhoneNumber
	}
	if l.Alcaldia != "" {
		fields["alcaldia"] = l.Alcaldia
	}
	if l.Direccion != "" {
		fields["direccion"] = l.Direccion
	}
	if l.Referencias != "" {
		fields["referencias"] = l.Referencias
	}
	if l.CuantasPersons != nil {
		fields["cuantas_persons"] = *l.CuantasPersons
	}
	if l.Status != "" {
		fields["status"] = l.Status
	}
	if l.NumLlamadas != nil {
		fields["num_llamadas"] = *l.NumLlamadas
	}
	if l.Contactado != "" {
		fields["contactado"] = l.Contactado
	}
	if l.Monto != nil {
		fields["monto"] = *l.Monto
	}
	return fields
}

// Call represents one phone call logged against a lead.
type Call struct {
	CallID          string `json:"call_id,omitempty"`
	LeadName        string `json:"lead_name,omitempty"`
	LeadPhoneNumber string `json:"lead_phone_number,omitempty"`
	CallType        string `json:"call_type,omitempty"`
	Transcript      string `json:"transcript,omitempty"`
	CallDatetime    string `json:"call_datetime,omitempty"`
}

// ToFields converts the call into an Airtable fields map, omitting unset
// values.
func (c Call) ToFields() map[string]interface{} {
	fields := map[string]interface{}{}
	if c.CallID != "" {
		fields["call_id"] = c.CallID
	}
	if c.LeadName != "" {
		fields["lead_name"] = c.LeadName
	}
	if c.LeadPhoneNumber != "" {
		fields["lead_phone_number"] = c.LeadPhoneNumber
	}
	if c.CallType != "" {
		fields["call_type"] = c.CallType
	}
	if c.Transcript != "" {
		fields["transcript"] = c.Transcript
	}
	if c.CallDatetime != "" {
		fields["call_datetime"] = c.CallDatetime
	}
	return fields
}

// UpdateLeadStatusRequest is the body of the lead status update endpoint.
type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
}

// LeadResponse wraps a single lead lookup.
type LeadResponse struct {
	Success bool             `json:"success"`
	Lead    *airtable.Record `json:"lead,omitempty"`
	Message string           `json:"message,omitempty"`
}

// CreateLeadResponse wraps a created lead record.
type CreateLeadResponse struct {
	Success bool             `json:"success"`
	Lead    *airtable.Record `json:"lead,omitempty"`
}

// UpdateLeadResponse wraps a lead after a status change.
type UpdateLeadResponse struct {
	Success     bool             `json:"success"`
	UpdatedLead *airtable.Record `json:"updated_lead,omitempty"`
}

// CreateCallResponse wraps a logged call record.
type CreateCallResponse struct {
	Success bool             `json:"success"`
	Call    *airtable.Record `json:"call,omitempty"`
}
