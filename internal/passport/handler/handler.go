package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provenant/internal/domain"
	"provenant/internal/passport"
	"provenant/internal/trust"
	"provenant/internal/verify"
	"provenant/pkg/httputil"
)

// View is the merged read surface the dashboard queries.
type View interface {
	Identities(ctx context.Context) []domain.Identity
	Identity(ctx context.Context, did string) (domain.Identity, error)
	Events(ctx context.Context) []domain.DIDEvent
	EventsByDID(ctx context.Context, did string) []domain.DIDEvent
	Attestations(ctx context.Context, did string) []domain.Attestation
	Anchors(ctx context.Context, did string) []domain.AnchoringEvent
}

// Writer is the write-side service for UI-authored records.
type Writer interface {
	CreateIdentity(ctx context.Context, req passport.CreateIdentityRequest) (domain.Identity, error)
	AddComponent(ctx context.Context, parentDID, childDID string, kind domain.RelationshipKind, position int) error
	RecordAttestation(ctx context.Context, req passport.AttestationRequest) (domain.Attestation, error)
	RecordAnchor(ctx context.Context, did string, anchorType domain.AnchorType, metadata map[string]any) (domain.AnchoringEvent, error)
	AddCredential(ctx context.Context, cred domain.Credential) (domain.Credential, error)
	UpdateStatus(ctx context.Context, did, status string) (domain.Identity, error)
}

// Scorer computes per-identity trust signals.
type Scorer interface {
	Score(ctx context.Context, did string) domain.TrustScore
	Hierarchy() *trust.HierarchyValidator
}

// Verifier runs the raw protocol-file checks.
type Verifier interface {
	Verify(ctx context.Context, did string) verify.Result
}

// Handler wires passport endpoints to the services. It stays thin: no
// business logic, only decode/delegate/encode.
type Handler struct {
	view     View
	writer   Writer
	scorer   Scorer
	verifier Verifier
	logger   *slog.Logger
}

// New constructs a passport handler with its dependencies.
func New(view View, writer Writer, scorer Scorer, verifier Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		view:     view,
		writer:   writer,
		scorer:   scorer,
		verifier: verifier,
		logger:   logger,
	}
}

// Register mounts passport endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/passports", h.handleList)
	r.Post("/passports", h.handleCreate)
	r.Get("/passports/{did}", h.handleGet)
	r.Get("/passports/{did}/events", h.handleEvents)
	r.Get("/passports/{did}/attestations", h.handleAttestations)
	r.Post("/passports/{did}/attestations", h.handleRecordAttestation)
	r.Get("/passports/{did}/anchors", h.handleAnchors)
	r.Post("/passports/{did}/anchors", h.handleRecordAnchor)
	r.Post("/passports/{did}/credentials", h.handleAddCredential)
	r.Post("/passports/{did}/components", h.handleAddComponent)
	r.Put("/passports/{did}/status", h.handleUpdateStatus)
	r.Get("/passports/{did}/verify", h.handleVerify)
	r.Get("/passports/{did}/trust-score", h.handleTrustScore)
	r.Get("/passports/{did}/hierarchy", h.handleHierarchy)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.view.Identities(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	did := chi.URLParam(r, "did")
	ident, err := h.view.Identity(r.Context(), did)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ident)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.view.EventsByDID(r.Context(), chi.URLParam(r, "did")))
}

func (h *Handler) handleAttestations(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.view.Attestations(r.Context(), chi.URLParam(r, "did")))
}

func (h *Handler) handleAnchors(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.view.Anchors(r.Context(), chi.URLParam(r, "did")))
}

type createRequest struct {
	DID       string         `json:"did"`
	Category  string         `json:"category"`
	ModelName string         `json:"modelName"`
	ParentDID string         `json:"parentDid"`
	OwnerDID  string         `json:"ownerDid"`
	Metadata  map[string]any `json:"metadata"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[createRequest](r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	ident, err := h.writer.CreateIdentity(r.Context(), passport.CreateIdentityRequest{
		DID:       req.DID,
		Category:  domain.Category(req.Category),
		ModelName: req.ModelName,
		ParentDID: req.ParentDID,
		OwnerDID:  req.OwnerDID,
		Metadata:  req.Metadata,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create passport failed", "did", req.DID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ident)
}

type attestationRequest struct {
	WitnessDID string `json:"witnessDid"`
	Type       string `json:"type"`
	Data       string `json:"data"`
	Signature  string `json:"signature"`
	Approval   string `json:"approval"`
}

func (h *Handler) handleRecordAttestation(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[attestationRequest](r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	att, err := h.writer.RecordAttestation(r.Context(), passport.AttestationRequest{
		IdentityDID: chi.URLParam(r, "did"),
		WitnessDID:  req.WitnessDID,
		Type:        domain.AttestationType(req.Type),
		Data:        req.Data,
		Signature:   req.Signature,
		Approval:    domain.ApprovalStatus(req.Approval),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, att)
}

type anchorRequest struct {
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

func (h *Handler) handleRecordAnchor(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[anchorRequest](r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	anchor, err := h.writer.RecordAnchor(r.Context(), chi.URLParam(r, "did"), domain.AnchorType(req.Type), req.Metadata)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, anchor)
}

type credentialRequest struct {
	Type      string `json:"type"`
	IssuerDID string `json:"issuerDid"`
	Status    string `json:"status"`
}

func (h *Handler) handleAddCredential(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[credentialRequest](r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	cred, err := h.writer.AddCredential(r.Context(), domain.Credential{
		IdentityDID: chi.URLParam(r, "did"),
		Type:        req.Type,
		IssuerDID:   req.IssuerDID,
		Status:      req.Status,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cred)
}

type componentRequest struct {
	ChildDID string `json:"childDid"`
	Kind     string `json:"kind"`
	Position int    `json:"position"`
}

func (h *Handler) handleAddComponent(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[componentRequest](r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	if err := h.writer.AddComponent(r.Context(), chi.URLParam(r, "did"), req.ChildDID,
		domain.RelationshipKind(req.Kind), req.Position); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[statusRequest](r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}
	ident, err := h.writer.UpdateStatus(r.Context(), chi.URLParam(r, "did"), req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ident)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.verifier.Verify(r.Context(), chi.URLParam(r, "did")))
}

func (h *Handler) handleTrustScore(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.scorer.Score(r.Context(), chi.URLParam(r, "did")))
}

func (h *Handler) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.scorer.Hierarchy().Check(r.Context(), chi.URLParam(r, "did")))
}
