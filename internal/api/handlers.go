// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"

	apperrors "airtable-gateway/internal/common/errors"
	"airtable-gateway/internal/models"

	"github.com/gorilla/mux"
)

// decodeJSON decodes a request body, converting malformed JSON into the
// validation error envelope.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", err.Error())
	}
	return nil
}

// ==========================
// Record CRUD Handlers
// ==========================

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Table == "" {
		return apperrors.NewValidationError("Invalid request body", "'table' is required")
	}

	resp, err := s.svc.CreateRecord(r.Context(), req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)

	resp, err := s.svc.GetRecord(r.Context(), vars["table_name"], vars["record_id"])
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getAllRecords(w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)

	resp, err := s.svc.GetAllRecords(r.Context(), vars["table_name"])
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) error {
	var req models.UpdateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Table == "" || req.RecordID == "" {
		return apperrors.NewValidationError("Invalid request body", "'table' and 'record_id' are required")
	}

	resp, err := s.svc.UpdateRecord(r.Context(), req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) error {
	var req models.DeleteRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Table == "" || req.RecordID == "" {
		return apperrors.NewValidationError("Invalid request body", "'table' and 'record_id' are required")
	}

	resp, err := s.svc.DeleteRecord(r.Context(), req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchRecords(w http.ResponseWriter, r *http.Request) error {
	var req models.SearchRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Table == "" || req.Field == "" {
		return apperrors.NewValidationError("Invalid request body", "'table' and 'field' are required")
	}

	resp, err := s.svc.SearchRecords(r.Context(), req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

// ==========================
// Lead Handlers
// ==========================

func (s *Server) getLeadByPhone(w http.ResponseWriter, r *http.Request) error {
	phone := mux.Vars(r)["phone"]

	resp, err := s.svc.GetLeadByPhone(r.Context(), phone)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createLead(w http.ResponseWriter, r *http.Request) error {
	var lead models.Lead
	if err := decodeJSON(r, &lead); err != nil {
		return err
	}

	resp, err := s.svc.CreateLead(r.Context(), lead)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) updateLeadStatus(w http.ResponseWriter, r *http.Request) error {
	recordID := mux.Vars(r)["record_id"]

	var req models.UpdateLeadStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("Invalid request body", "'status' is required")
	}

	resp, err := s.svc.UpdateLeadStatus(r.Context(), recordID, req.Status)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createCall(w http.ResponseWriter, r *http.Request) error {
	var call models.Call
	if err := decodeJSON(r, &call); err != nil {
		return err
	}

	resp, err := s.svc.CreateCall(r.Context(), call)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}
