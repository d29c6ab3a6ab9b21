package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/north/internal/contract"
	"github.com/dukerupert/north/internal/engine"
	"github.com/dukerupert/north/internal/model"
)

type ContractHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewContractHandler(e *engine.Engine, logger *slog.Logger) *ContractHandler {
	return &ContractHandler{engine: e, logger: logger}
}

// createContractRequest accepts contacts either structured or as the
// comma-separated text a user types into the contacts field.
type createContractRequest struct {
	contract.Draft
	ContactList string `json:"contacts"`
}

type proofRequest struct {
	ProofText     string `json:"proof_text"`
	ProofFileName string `json:"proof_file_name"`
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

// List handles GET /api/contracts
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Contracts())
}

// Get handles GET /api/contracts/{id}
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	v := h.engine.Contract(r.PathValue("id"))
	if v == nil {
		writeError(w, http.StatusNotFound, "contract not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Create handles POST /api/contracts
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createContractRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ContactList) != "" {
		req.Contacts = append(req.Contacts, contract.ParseContacts(req.ContactList)...)
	}

	c, err := h.engine.CreateContract(req.Draft)
	if err != nil {
		writeEngineError(w, h.logger, "create contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// SubmitProof handles POST /api/contracts/{id}/proof
func (h *ContractHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	var req proofRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.engine.SubmitProof(r.PathValue("id"), req.ProofText, req.ProofFileName)
	if err != nil {
		writeEngineError(w, h.logger, "submit proof", err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "contract not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Fail handles POST /api/contracts/{id}/fail
func (h *ContractHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r.PathValue("id"), "mark contract failed", h.engine.MarkFailed)
}

// Miss handles POST /api/contracts/{id}/miss
func (h *ContractHandler) Miss(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r.PathValue("id"), "report miss", h.engine.ReportMiss)
}

// MarkAccountabilitySent handles POST /api/contracts/{id}/accountability
func (h *ContractHandler) MarkAccountabilitySent(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r.PathValue("id"), "mark accountability sent", h.engine.MarkAccountabilitySent)
}

// React handles POST /api/contracts/{id}/reactions
func (h *ContractHandler) React(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r.PathValue("id"), "react", func(id string) (*model.Contract, error) {
		return h.engine.React(id, req.Emoji)
	})
}

// Share handles GET /api/contracts/{id}/share
func (h *ContractHandler) Share(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.engine.ShareMessage(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "contract not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Summary handles GET /api/contracts/summary
func (h *ContractHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Summary())
}

func (h *ContractHandler) mutate(w http.ResponseWriter, id, op string, fn func(string) (*model.Contract, error)) {
	c, err := fn(id)
	if err != nil {
		writeEngineError(w, h.logger, op, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "contract not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
